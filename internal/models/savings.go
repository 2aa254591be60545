package models

import "time"

// Savings is a user's savings account. Exactly one row exists per user,
// enforced by the unique index on user_id; concurrent first access is
// resolved by the constraint rather than check-then-insert.
//
// Invariant: Balance == TotalDeposits - TotalWithdrawals at all times,
// and Balance never goes negative.
type Savings struct {
	Base
	UserID              uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Balance             int64      `gorm:"type:bigint;not null;default:0" json:"balance"`
	TotalDeposits       int64      `gorm:"type:bigint;not null;default:0" json:"total_deposits"`
	TotalWithdrawals    int64      `gorm:"type:bigint;not null;default:0" json:"total_withdrawals"`
	LastTransactionDate *time.Time `json:"last_transaction_date,omitempty"`

	// Relationships
	TransferredCycles []SavingsCycle `gorm:"foreignKey:SavingsID" json:"transferred_cycles,omitempty"`
}

// SavingsCycle records that the surplus for a legacy (month, year) budget
// cycle has already been moved to savings. The unique index on
// (user_id, month, year) is the serialization point that stops two
// concurrent surplus transfers from double-crediting the same cycle.
type SavingsCycle struct {
	Base
	SavingsID     uint      `gorm:"not null;index" json:"savings_id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_savings_cycles_owner_cycle" json:"user_id"`
	Month         int       `gorm:"not null;uniqueIndex:idx_savings_cycles_owner_cycle" json:"month"`
	Year          int       `gorm:"not null;uniqueIndex:idx_savings_cycles_owner_cycle" json:"year"`
	Amount        int64     `gorm:"type:bigint;not null" json:"amount"`
	TransferredAt time.Time `gorm:"not null" json:"transferred_at"`
}
