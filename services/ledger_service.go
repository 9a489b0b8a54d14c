package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/velora/tokenmarket/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns every mutation of account balances. Each public
// operation runs in a single transaction; the Tx variants join a caller's
// transaction so a booking transition and its money movement commit
// together. Account rows are locked before any balance check, in user-id
// order when an operation touches two accounts.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// forUpdate adds a row lock where the dialect supports it. The sqlite
// driver used by the test suite has no FOR UPDATE; its single-writer model
// serializes these transactions anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *LedgerService) lockAccount(tx *gorm.DB, userID uint) (*models.Account, error) {
	var account models.Account
	if err := forUpdate(tx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "account"}
		}
		return nil, err
	}
	return &account, nil
}

// apply mutates the locked account by the signed deltas, appends the
// immutable ledger entry recording the move, and refuses to drive either
// balance negative.
func (s *LedgerService) apply(tx *gorm.DB, account *models.Account, kind models.EntryKind, amount, escrowAmount int64, description string, bookingID *uint, ref uuid.UUID) error {
	entry := models.LedgerEntry{
		AccountID:     account.ID,
		Kind:          kind,
		Amount:        amount,
		EscrowAmount:  escrowAmount,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance + amount,
		EscrowBefore:  account.EscrowBalance,
		EscrowAfter:   account.EscrowBalance + escrowAmount,
		Description:   description,
		BookingID:     bookingID,
		Reference:     ref,
	}
	if entry.BalanceAfter < 0 || entry.EscrowAfter < 0 {
		return fmt.Errorf("ledger %s would drive account %d negative (balance %d, escrow %d)",
			kind, account.ID, entry.BalanceAfter, entry.EscrowAfter)
	}

	account.Balance = entry.BalanceAfter
	account.EscrowBalance = entry.EscrowAfter

	err := tx.Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"balance":        account.Balance,
		"escrow_balance": account.EscrowBalance,
	}).Error
	if err != nil {
		return err
	}
	return tx.Create(&entry).Error
}

// HoldTx moves amount from the user's balance into escrow.
func (s *LedgerService) HoldTx(tx *gorm.DB, userID uint, amount int64, bookingID uint) error {
	if amount <= 0 {
		return ValidationError{Msg: "hold amount must be positive"}
	}
	account, err := s.lockAccount(tx, userID)
	if err != nil {
		return err
	}
	if account.Balance < amount {
		return InsufficientBalanceError{Need: amount, Have: account.Balance}
	}
	return s.apply(tx, account, models.EntryHold, -amount, amount,
		fmt.Sprintf("Escrow hold for booking #%d", bookingID), &bookingID, uuid.New())
}

func (s *LedgerService) Hold(userID uint, amount int64, bookingID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.HoldTx(tx, userID, amount, bookingID)
	})
}

// ReleaseTx settles a booking: the full held amount leaves the payer's
// escrow and earnAmount lands in the payee's spendable balance. The
// difference is the platform fee, retained by the platform. Both accounts
// are locked in user-id order and both entries share one reference.
func (s *LedgerService) ReleaseTx(tx *gorm.DB, fromUserID, toUserID uint, escrowAmount, earnAmount int64, bookingID uint) error {
	if escrowAmount <= 0 || earnAmount <= 0 {
		return ValidationError{Msg: "release amounts must be positive"}
	}
	if earnAmount > escrowAmount {
		return ValidationError{Msg: "earnings cannot exceed the held amount"}
	}

	first, second := fromUserID, toUserID
	if second < first {
		first, second = second, first
	}
	firstAccount, err := s.lockAccount(tx, first)
	if err != nil {
		return err
	}
	secondAccount, err := s.lockAccount(tx, second)
	if err != nil {
		return err
	}
	from, to := firstAccount, secondAccount
	if first != fromUserID {
		from, to = secondAccount, firstAccount
	}

	if from.EscrowBalance < escrowAmount {
		return fmt.Errorf("escrow balance %d below settlement amount %d for account %d",
			from.EscrowBalance, escrowAmount, from.ID)
	}

	ref := uuid.New()
	err = s.apply(tx, from, models.EntryEscrowRelease, 0, -escrowAmount,
		fmt.Sprintf("Escrow release for booking #%d", bookingID), &bookingID, ref)
	if err != nil {
		return err
	}
	return s.apply(tx, to, models.EntryEarning, earnAmount, 0,
		fmt.Sprintf("Earnings from booking #%d", bookingID), &bookingID, ref)
}

func (s *LedgerService) Release(fromUserID, toUserID uint, escrowAmount, earnAmount int64, bookingID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.ReleaseTx(tx, fromUserID, toUserID, escrowAmount, earnAmount, bookingID)
	})
}

// RefundTx returns escrowed tokens to the user's balance. refundAmount may
// be lower than escrowAmount when a cancellation penalty is retained; the
// entry records both deltas.
func (s *LedgerService) RefundTx(tx *gorm.DB, userID uint, escrowAmount, refundAmount int64, bookingID uint, description string) error {
	if escrowAmount <= 0 || refundAmount <= 0 {
		return ValidationError{Msg: "refund amounts must be positive"}
	}
	if refundAmount > escrowAmount {
		return ValidationError{Msg: "refund cannot exceed the held amount"}
	}
	account, err := s.lockAccount(tx, userID)
	if err != nil {
		return err
	}
	if account.EscrowBalance < escrowAmount {
		return fmt.Errorf("escrow balance %d below refund amount %d for account %d",
			account.EscrowBalance, escrowAmount, account.ID)
	}
	return s.apply(tx, account, models.EntryRefund, refundAmount, -escrowAmount,
		description, &bookingID, uuid.New())
}

func (s *LedgerService) Refund(userID uint, escrowAmount, refundAmount int64, bookingID uint, description string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.RefundTx(tx, userID, escrowAmount, refundAmount, bookingID, description)
	})
}

// CreditTx is an unconditional balance increase with no escrow debit,
// used by dispute resolution. The entry carries the refund kind tagged
// with the reason.
func (s *LedgerService) CreditTx(tx *gorm.DB, userID uint, amount int64, reason string, bookingID *uint) error {
	if amount <= 0 {
		return ValidationError{Msg: "credit amount must be positive"}
	}
	account, err := s.lockAccount(tx, userID)
	if err != nil {
		return err
	}
	return s.apply(tx, account, models.EntryRefund, amount, 0, reason, bookingID, uuid.New())
}

func (s *LedgerService) Credit(userID uint, amount int64, reason string, bookingID *uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.CreditTx(tx, userID, amount, reason, bookingID)
	})
}

// Account returns the user's wallet without locking it.
func (s *LedgerService) Account(userID uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "account"}
		}
		return nil, err
	}
	return &account, nil
}

// History lists the account's ledger entries, newest first.
func (s *LedgerService) History(userID uint, limit, offset int) ([]models.LedgerEntry, error) {
	account, err := s.Account(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.LedgerEntry
	err = s.db.Where("account_id = ?", account.ID).
		Order("id desc").Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, err
}
