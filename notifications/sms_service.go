package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	config "github.com/velora/tokenmarket/configs"
)

// SMSService delivers templated texts through an HTTP SMS gateway. When no
// API key is configured it runs in simulation mode and only logs, which is
// what local development and the test environment use.
type SMSService struct {
	apiKey   string
	sender   string
	endpoint string
	client   *http.Client
}

var templates = map[string]string{
	"service_start_otp": "Your verification code to start service for booking #%v is: %v. This code expires in %v minutes.",
	"booking_created":   "Booking #%v has been placed for %v.",
	"booking_reminder":  "Reminder: booking #%v starts at %v.",
	"booking_cancelled": "Booking #%v was cancelled. Refund: %v tokens.",
}

func NewSMSService() *SMSService {
	apiKey := config.Config("SMS_API_KEY")
	if apiKey == "" {
		log.Println("⚠️ SMS service not configured, running in simulation mode")
	}
	endpoint := config.Config("SMS_API_URL")
	if endpoint == "" {
		endpoint = "https://api.sms-gateway.example/v1/messages"
	}
	return &SMSService{
		apiKey:   apiKey,
		sender:   config.Config("SMS_SENDER"),
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SMSService) render(templateID string, data map[string]interface{}) (string, error) {
	format, ok := templates[templateID]
	if !ok {
		return "", fmt.Errorf("unknown template %q", templateID)
	}
	args := make([]interface{}, 0, len(data))
	for _, key := range []string{"booking_id", "value", "extra"} {
		if v, ok := data[key]; ok {
			args = append(args, v)
		}
	}
	return fmt.Sprintf(format, args...), nil
}

func (s *SMSService) Send(destination, templateID string, data map[string]interface{}) error {
	body, err := s.render(templateID, data)
	if err != nil {
		return err
	}

	if s.apiKey == "" {
		log.Printf("🧪 SMS simulation to %s: %s", destination, body)
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"to":   destination,
		"from": s.sender,
		"body": body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %s", resp.Status)
	}
	return nil
}
