package models

import "time"

// BudgetPeriodType represents how a budget's window was defined.
type BudgetPeriodType string

const (
	BudgetPeriodWeekly  BudgetPeriodType = "weekly"
	BudgetPeriodMonthly BudgetPeriodType = "monthly"
	BudgetPeriodCustom  BudgetPeriodType = "custom"
)

// BudgetStatus represents a budget's lifecycle state. Status is derived
// from wall-clock time relative to the budget window; cancelled is the
// only state reachable by user action alone.
type BudgetStatus string

const (
	BudgetStatusUpcoming  BudgetStatus = "upcoming"
	BudgetStatusActive    BudgetStatus = "active"
	BudgetStatusCompleted BudgetStatus = "completed"
	BudgetStatusCancelled BudgetStatus = "cancelled"
)

// Budget represents a time-boxed spending limit for an expense category.
// Once its remainder has been transferred to savings the budget is frozen:
// no amount or date edits and no deletion.
type Budget struct {
	Base
	UserID     uint             `gorm:"not null;index:idx_budgets_owner_status;index:idx_budgets_owner_category" json:"user_id"`
	CategoryID uint             `gorm:"not null;index:idx_budgets_owner_category" json:"category_id"`
	Amount     int64            `gorm:"type:bigint;not null" json:"amount"`
	StartDate  time.Time        `gorm:"not null;index:idx_budgets_owner_window" json:"start_date"`
	EndDate    time.Time        `gorm:"not null;index:idx_budgets_owner_window" json:"end_date"`
	PeriodType BudgetPeriodType `gorm:"not null" json:"period_type"`
	Status     BudgetStatus     `gorm:"not null;default:'upcoming';index:idx_budgets_owner_status" json:"status"`
	Notes      string           `json:"notes"`

	SavingsTransferred    bool       `gorm:"default:false" json:"savings_transferred"`
	SavingsTransferAmount int64      `json:"savings_transfer_amount"`
	SavingsTransferDate   *time.Time `json:"savings_transfer_date,omitempty"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// IsTerminal reports whether the budget is in a terminal state.
// Terminal budgets are ignored by the overlap check.
func (b *Budget) IsTerminal() bool {
	return b.Status == BudgetStatusCompleted || b.Status == BudgetStatusCancelled
}

// StatusAt derives the lifecycle status for the given instant. Terminal
// states are sticky: a completed or cancelled budget never reverts.
func (b *Budget) StatusAt(now time.Time) BudgetStatus {
	if b.IsTerminal() {
		return b.Status
	}
	switch {
	case now.Before(b.StartDate):
		return BudgetStatusUpcoming
	case now.After(b.EndDate):
		return BudgetStatusCompleted
	default:
		return BudgetStatusActive
	}
}
