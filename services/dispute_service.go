package services

import (
	"errors"
	"time"

	"github.com/velora/tokenmarket/models"
	"gorm.io/gorm"
)

// DisputeService handles complaint intake and manager resolution. A
// resolution with a positive amount credits the seeker's spendable balance
// through the ledger; the underlying booking's status is never touched.
type DisputeService struct {
	db     *gorm.DB
	ledger *LedgerService
}

func NewDisputeService(db *gorm.DB, ledger *LedgerService) *DisputeService {
	return &DisputeService{db: db, ledger: ledger}
}

// Open files a dispute against a booking. Only the booking's participants
// may file one.
func (s *DisputeService) Open(bookingID, reporterID uint, disputeType models.DisputeType, description string) (*models.Dispute, error) {
	if description == "" {
		return nil, ValidationError{Msg: "description is required"}
	}

	var booking models.Booking
	if err := s.db.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "booking"}
		}
		return nil, err
	}
	if reporterID != booking.SeekerID && reporterID != booking.ProviderID {
		return nil, UnauthorizedError{Msg: "only booking participants can open a dispute"}
	}

	dispute := models.Dispute{
		BookingID:   bookingID,
		ReportedBy:  reporterID,
		DisputeType: disputeType,
		Description: description,
		Status:      models.DisputeOpen,
	}
	if err := s.db.Create(&dispute).Error; err != nil {
		return nil, err
	}
	return &dispute, nil
}

// Assign hands an open dispute to a manager and marks it under
// investigation.
func (s *DisputeService) Assign(disputeID, managerID uint) (*models.Dispute, error) {
	var manager models.User
	err := s.db.Where("id = ? AND is_active = ?", managerID, true).First(&manager).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError{Resource: "manager"}
	}
	if err != nil {
		return nil, err
	}
	if !manager.Role.IsStaff() {
		return nil, ValidationError{Msg: "disputes can only be assigned to staff"}
	}

	var dispute models.Dispute
	if err := s.db.First(&dispute, "id = ?", disputeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "dispute"}
		}
		return nil, err
	}
	if dispute.Status == models.DisputeResolved || dispute.Status == models.DisputeClosed {
		return nil, ValidationError{Msg: "dispute is already resolved"}
	}

	updates := map[string]interface{}{
		"assigned_manager": managerID,
		"status":           models.DisputeInvestigating,
	}
	if err := s.db.Model(&dispute).Updates(updates).Error; err != nil {
		return nil, err
	}
	dispute.AssignedManager = &managerID
	dispute.Status = models.DisputeInvestigating
	return &dispute, nil
}

// Resolve closes out a dispute. Only the assigned manager or an admin can
// resolve it; a positive amount is credited to the seeker's balance in the
// same transaction that records the resolution.
func (s *DisputeService) Resolve(disputeID, resolverID uint, resolverRole models.Role, resolution string, amount int64) (*models.Dispute, error) {
	if resolution == "" {
		return nil, ValidationError{Msg: "resolution notes are required"}
	}
	if amount < 0 {
		return nil, ValidationError{Msg: "resolution amount cannot be negative"}
	}

	var dispute models.Dispute
	if err := s.db.First(&dispute, "id = ?", disputeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "dispute"}
		}
		return nil, err
	}

	isAdmin := resolverRole == models.RoleAdmin || resolverRole == models.RoleSuperAdmin
	if !isAdmin && (dispute.AssignedManager == nil || *dispute.AssignedManager != resolverID) {
		return nil, UnauthorizedError{Msg: "only the assigned manager or an admin can resolve this dispute"}
	}
	if dispute.Status == models.DisputeResolved || dispute.Status == models.DisputeClosed {
		return nil, ValidationError{Msg: "dispute is already resolved"}
	}

	var booking models.Booking
	if err := s.db.First(&booking, "id = ?", dispute.BookingID).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if amount > 0 {
			err := s.ledger.CreditTx(tx, booking.SeekerID, amount, "Dispute resolution credit", &dispute.BookingID)
			if err != nil {
				return err
			}
		}
		updates := map[string]interface{}{
			"status":            models.DisputeResolved,
			"resolution":        resolution,
			"resolution_amount": amount,
			"resolved_at":       now,
		}
		return tx.Model(&dispute).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	dispute.Status = models.DisputeResolved
	dispute.Resolution = &resolution
	dispute.ResolutionAmount = &amount
	dispute.ResolvedAt = &now
	return &dispute, nil
}

// List returns disputes for the admin console, optionally filtered by
// status, newest first.
func (s *DisputeService) List(status *models.DisputeStatus, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := s.db.Model(&models.Dispute{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var disputes []models.Dispute
	err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&disputes).Error
	return disputes, err
}

// MyDisputes lists disputes the user reported.
func (s *DisputeService) MyDisputes(userID uint) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := s.db.Where("reported_by = ?", userID).Order("created_at desc").Find(&disputes).Error
	return disputes, err
}
