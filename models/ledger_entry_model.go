package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EntryKind string

const (
	EntryHold          EntryKind = "hold"
	EntryEscrowRelease EntryKind = "escrow_release"
	EntryEarning       EntryKind = "earning"
	EntryRefund        EntryKind = "refund"
)

func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(strings.ToLower(strings.TrimSpace(s))) {
	case EntryHold:
		return EntryHold, nil
	case EntryEscrowRelease:
		return EntryEscrowRelease, nil
	case EntryEarning:
		return EntryEarning, nil
	case EntryRefund:
		return EntryRefund, nil
	}
	return "", fmt.Errorf("unknown ledger entry kind %q", s)
}

// LedgerEntry is an immutable record of one balance-changing event.
// Amount and EscrowAmount are the signed deltas applied to the account's
// balance and escrow_balance; BalanceBefore+Amount must equal BalanceAfter
// and likewise for the escrow pair, so replaying an account's entries from
// zero reproduces its current state. Reference groups the entries written
// by a single ledger operation (a settlement writes two entries under one
// reference). The table is append-only: rows are never updated or deleted.
type LedgerEntry struct {
	ID           uint      `gorm:"primary_key" json:"id"`
	AccountID    uint      `gorm:"not null;index" json:"account_id"`
	Kind         EntryKind `gorm:"size:20;not null" json:"kind"`
	Amount       int64     `gorm:"not null" json:"amount"`
	EscrowAmount int64     `gorm:"not null" json:"escrow_amount"`

	BalanceBefore int64 `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64 `gorm:"not null" json:"balance_after"`
	EscrowBefore  int64 `gorm:"not null" json:"escrow_before"`
	EscrowAfter   int64 `gorm:"not null" json:"escrow_after"`

	Description string    `gorm:"size:255" json:"description"`
	BookingID   *uint     `gorm:"index" json:"booking_id,omitempty"`
	Reference   uuid.UUID `gorm:"type:uuid;not null;index" json:"reference"`

	CreatedAt time.Time `json:"created_at"`
}
