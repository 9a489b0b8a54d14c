package models

import "time"

// Account is a user's token wallet. Balance and escrow are only ever
// mutated through the ledger service, inside a transaction that also
// appends the matching LedgerEntry rows.
type Account struct {
	ID            uint  `gorm:"primary_key" json:"id"`
	UserID        uint  `gorm:"not null;unique" json:"user_id"`
	Balance       int64 `gorm:"not null;default:0" json:"balance"`
	EscrowBalance int64 `gorm:"not null;default:0" json:"escrow_balance"`

	User User `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
