package notifications

// Dispatcher is the outbound delivery collaborator (SMS/email). The core
// calls it strictly after the owning database transaction has committed;
// a failed send is logged and surfaced as a warning, never rolled back
// into the transaction it followed.
type Dispatcher interface {
	Send(destination, templateID string, data map[string]interface{}) error
}
