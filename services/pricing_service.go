package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/velora/tokenmarket/models"
	"gorm.io/gorm"
)

// DefaultFeePercentage applies when no fee config row exists at all.
const DefaultFeePercentage = 0.15

// PricingService resolves the effective platform fee and the derived
// rates. Fee configuration is versioned append-only: changing a fee
// deactivates the active row for its scope and inserts a fresh one, and
// every applied change gets a FeeChangeLog row.
type PricingService struct {
	db *gorm.DB
}

func NewPricingService(db *gorm.DB) *PricingService {
	return &PricingService{db: db}
}

type RateBreakdown struct {
	ProviderRate  int64   `json:"provider_rate"`
	SeekerRate    int64   `json:"seeker_rate"`
	FeeAmount     int64   `json:"platform_fee_amount"`
	FeePercentage float64 `json:"platform_fee_percentage"`
}

type CostBreakdown struct {
	ProviderEarnings int64         `json:"provider_earnings"`
	PlatformFee      int64         `json:"platform_fee"`
	TotalCost        int64         `json:"total_cost"`
	DurationHours    int           `json:"duration_hours"`
	Hourly           RateBreakdown `json:"hourly_breakdown"`
}

// EffectiveFee returns the provider-specific active fee if one exists,
// else the latest active global fee, else the hard default. providerID 0
// resolves the global fee.
func (s *PricingService) EffectiveFee(providerID uint) float64 {
	if providerID != 0 {
		var config models.FeeConfig
		err := s.db.Where("provider_id = ? AND is_active = ?", providerID, true).
			First(&config).Error
		if err == nil {
			return config.FeePercentage
		}
	}

	var global models.FeeConfig
	err := s.db.Where("provider_id IS NULL AND is_active = ?", true).
		Order("created_at desc").First(&global).Error
	if err == nil {
		return global.FeePercentage
	}
	return DefaultFeePercentage
}

// Rates derives the per-hour numbers a listing shows: what the provider
// set, what the seeker pays, and the fee between them.
func (s *PricingService) Rates(baseRate int64, providerID uint) RateBreakdown {
	pct := s.EffectiveFee(providerID)
	feeAmount := int64(float64(baseRate) * pct)
	return RateBreakdown{
		ProviderRate:  baseRate,
		SeekerRate:    baseRate + feeAmount,
		FeeAmount:     feeAmount,
		FeePercentage: pct,
	}
}

func (s *PricingService) BookingCost(baseRate int64, providerID uint, durationHours int) CostBreakdown {
	rates := s.Rates(baseRate, providerID)
	hours := int64(durationHours)
	return CostBreakdown{
		ProviderEarnings: rates.ProviderRate * hours,
		PlatformFee:      rates.FeeAmount * hours,
		TotalCost:        rates.SeekerRate * hours,
		DurationHours:    durationHours,
		Hourly:           rates,
	}
}

// ProviderPreview shows a provider how their listing is priced for
// seekers under the current fee.
func (s *PricingService) ProviderPreview(providerID uint) (RateBreakdown, error) {
	var profile models.Profile
	if err := s.db.Where("user_id = ?", providerID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RateBreakdown{}, NotFoundError{Resource: "provider profile"}
		}
		return RateBreakdown{}, err
	}
	if profile.HourlyRate <= 0 {
		return RateBreakdown{}, ValidationError{Msg: "hourly rate not set"}
	}
	return s.Rates(profile.HourlyRate, providerID), nil
}

func (s *PricingService) scopeQuery(tx *gorm.DB, providerID *uint) *gorm.DB {
	if providerID != nil {
		return tx.Where("provider_id = ?", *providerID)
	}
	return tx.Where("provider_id IS NULL")
}

// applyFee supersedes the active config row for the scope, inserts the
// new one and writes the audit log entry, all inside the caller's
// transaction.
func (s *PricingService) applyFee(tx *gorm.DB, actorID uint, feePercentage float64, providerID *uint, reason string, requestID *uint) (*models.FeeConfig, error) {
	oldFee := DefaultFeePercentage
	var current models.FeeConfig
	err := s.scopeQuery(tx.Where("is_active = ?", true), providerID).First(&current).Error
	switch {
	case err == nil:
		oldFee = current.FeePercentage
		update := tx.Model(&models.FeeConfig{}).Where("id = ?", current.ID).
			Update("is_active", false)
		if update.Error != nil {
			return nil, update.Error
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	config := models.FeeConfig{
		ProviderID:    providerID,
		FeePercentage: feePercentage,
		IsActive:      true,
		CreatedBy:     actorID,
	}
	if err := tx.Create(&config).Error; err != nil {
		return nil, err
	}

	logEntry := models.FeeChangeLog{
		ProviderID: providerID,
		OldFee:     oldFee,
		NewFee:     feePercentage,
		Reason:     reason,
		ChangedBy:  actorID,
		RequestID:  requestID,
	}
	if err := tx.Create(&logEntry).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func validateFeePercentage(pct float64) error {
	if pct < 0 || pct > 1 {
		return ValidationError{Msg: "fee percentage must be between 0 and 1"}
	}
	return nil
}

func (s *PricingService) checkProvider(tx *gorm.DB, providerID uint) error {
	var provider models.User
	err := tx.Where("id = ? AND role = ?", providerID, models.RoleProvider).First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError{Resource: "provider"}
	}
	return err
}

// SetFee is the direct super-admin path: supersede the scope's active
// config and log the change.
func (s *PricingService) SetFee(actorID uint, feePercentage float64, providerID *uint, reason string) (*models.FeeConfig, error) {
	if err := validateFeePercentage(feePercentage); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "fee update by super admin"
	}
	var config *models.FeeConfig
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if providerID != nil {
			if err := s.checkProvider(tx, *providerID); err != nil {
				return err
			}
		}
		var err error
		config, err = s.applyFee(tx, actorID, feePercentage, providerID, reason, nil)
		return err
	})
	return config, err
}

// RequestFeeChange opens a pending request for review; the current
// effective fee is snapshotted so reviewers see what they are changing.
func (s *PricingService) RequestFeeChange(requestorID uint, feePercentage float64, providerID *uint, justification string) (*models.FeeChangeRequest, error) {
	if err := validateFeePercentage(feePercentage); err != nil {
		return nil, err
	}
	if justification == "" {
		return nil, ValidationError{Msg: "justification is required"}
	}
	var scope uint
	if providerID != nil {
		if err := s.checkProvider(s.db, *providerID); err != nil {
			return nil, err
		}
		scope = *providerID
	}
	request := models.FeeChangeRequest{
		ProviderID:    providerID,
		CurrentFee:    s.EffectiveFee(scope),
		RequestedFee:  feePercentage,
		Justification: justification,
		Status:        models.FeeRequestPending,
		RequestedBy:   requestorID,
	}
	if err := s.db.Create(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// ReviewFeeChange approves or rejects a pending request. Approval applies
// the change through the same supersede-and-log path as SetFee, in the
// same transaction that closes the request.
func (s *PricingService) ReviewFeeChange(requestID, reviewerID uint, approve bool, notes string) (*models.FeeChangeRequest, error) {
	var request models.FeeChangeRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&request, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundError{Resource: "fee change request"}
			}
			return err
		}
		if request.Status != models.FeeRequestPending {
			return ValidationError{Msg: "request has already been reviewed"}
		}

		now := time.Now()
		request.ReviewedBy = &reviewerID
		request.ReviewedAt = &now
		if notes != "" {
			request.ReviewNotes = &notes
		}
		if approve {
			request.Status = models.FeeRequestApproved
			reason := fmt.Sprintf("fee change request #%d approved", request.ID)
			if _, err := s.applyFee(tx, reviewerID, request.RequestedFee, request.ProviderID, reason, &request.ID); err != nil {
				return err
			}
		} else {
			request.Status = models.FeeRequestRejected
		}

		return tx.Model(&models.FeeChangeRequest{}).Where("id = ?", request.ID).
			Updates(map[string]interface{}{
				"status":       request.Status,
				"reviewed_by":  request.ReviewedBy,
				"reviewed_at":  request.ReviewedAt,
				"review_notes": request.ReviewNotes,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *PricingService) ListConfigs(activeOnly bool) ([]models.FeeConfig, error) {
	query := s.db.Order("created_at desc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var configs []models.FeeConfig
	err := query.Find(&configs).Error
	return configs, err
}

func (s *PricingService) ListChangeLogs(limit int) ([]models.FeeChangeLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.FeeChangeLog
	err := s.db.Order("id desc").Limit(limit).Find(&logs).Error
	return logs, err
}

func (s *PricingService) ListChangeRequests(status *models.FeeRequestStatus) ([]models.FeeChangeRequest, error) {
	query := s.db.Order("created_at desc")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var requests []models.FeeChangeRequest
	err := query.Find(&requests).Error
	return requests, err
}
