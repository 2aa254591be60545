package models

import (
	"gorm.io/gorm"

	"nestegg/internal/uuid"
)

// SavingsTransactionType represents the direction of a savings movement.
type SavingsTransactionType string

const (
	SavingsTransactionCredit SavingsTransactionType = "credit"
	SavingsTransactionDebit  SavingsTransactionType = "debit"
)

// SavingsSource identifies what triggered a savings movement.
type SavingsSource string

const (
	SavingsSourceBudgetSurplus    SavingsSource = "budget_surplus"
	SavingsSourceBudgetRemainder  SavingsSource = "budget_remainder"
	SavingsSourceBudgetOverrun    SavingsSource = "budget_overrun"
	SavingsSourceManual           SavingsSource = "manual"
	SavingsSourceGoalContribution SavingsSource = "goal_contribution"
	SavingsSourceInterest         SavingsSource = "interest"
)

// DefaultDescription returns the human-readable template for a source,
// used when the caller does not supply a description.
func (s SavingsSource) DefaultDescription() string {
	switch s {
	case SavingsSourceBudgetSurplus:
		return "Monthly budget surplus transfer"
	case SavingsSourceBudgetRemainder:
		return "Budget remainder transfer"
	case SavingsSourceBudgetOverrun:
		return "Budget overrun coverage"
	case SavingsSourceManual:
		return "Manual savings contribution"
	case SavingsSourceGoalContribution:
		return "Savings goal contribution"
	case SavingsSourceInterest:
		return "Interest earned"
	default:
		return "Savings transaction"
	}
}

// SavingsTransaction is the append-only audit record for every savings
// deposit and withdrawal. Rows are never updated or deleted; together
// they are the system of record for savings history. BalanceAfter
// snapshots the savings balance immediately after the movement applied,
// so consecutive records form a consistent running total.
type SavingsTransaction struct {
	Base
	UserID       uint                   `gorm:"not null;index:idx_savings_transactions_owner" json:"user_id"`
	Reference    string                 `gorm:"size:36;uniqueIndex" json:"reference"`
	Type         SavingsTransactionType `gorm:"not null" json:"type"`
	Amount       int64                  `gorm:"type:bigint;not null" json:"amount"`
	Source       SavingsSource          `gorm:"not null" json:"source"`
	Description  string                 `json:"description"`
	CycleMonth   *int                   `json:"cycle_month,omitempty"`
	CycleYear    *int                   `json:"cycle_year,omitempty"`
	BudgetID     *uint                  `json:"budget_id,omitempty"`
	BalanceAfter int64                  `gorm:"type:bigint;not null" json:"balance_after"`

	// Relationships
	Budget *Budget `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
}

// BeforeCreate assigns a time-ordered reference for new audit records.
func (st *SavingsTransaction) BeforeCreate(tx *gorm.DB) error {
	if st.Reference == "" {
		st.Reference = uuid.New()
	}
	return nil
}
