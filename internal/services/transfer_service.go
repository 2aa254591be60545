package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "nestegg/internal/errors"
	"nestegg/internal/models"
)

// transferService orchestrates money movement between budgets and the
// savings account. It composes the budget, transaction, and savings
// services and binds each flow's mutations into one database transaction.
type transferService struct {
	db      *gorm.DB
	budgets BudgetServicer
	ledger  TransactionServicer
	savings SavingsServicer
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, budgets BudgetServicer, ledger TransactionServicer, savings SavingsServicer) TransferServicer {
	return &transferService{db: db, budgets: budgets, ledger: ledger, savings: savings}
}

// TransferBudgetRemainder moves a budget's unspent remainder into savings.
// The transferred mark and the deposit commit together: the conditional
// update on savings_transferred makes the second of two racing calls fail
// with ALREADY_TRANSFERRED before any money moves.
func (s *transferService) TransferBudgetRemainder(userID, budgetID uint) (*TransferResult, error) {
	if err := s.budgets.RefreshStatuses(userID); err != nil {
		return nil, err
	}

	var result *TransferResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var budget models.Budget
		if err := tx.Preload("Category").
			Where("id = ? AND user_id = ?", budgetID, userID).
			First(&budget).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBudgetNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if budget.SavingsTransferred {
			return apperrors.ErrAlreadyTransferred
		}

		spent, err := s.ledger.SumExpenses(userID, budget.CategoryID, budget.StartDate, budget.EndDate)
		if err != nil {
			return err
		}
		remaining := budget.Amount - spent
		if remaining <= 0 {
			return apperrors.ErrNothingToTransfer
		}

		now := time.Now()
		res := tx.Model(&models.Budget{}).
			Where("id = ? AND savings_transferred = ?", budget.ID, false).
			Updates(map[string]interface{}{
				"savings_transferred":     true,
				"savings_transfer_amount": remaining,
				"savings_transfer_date":   now,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrAlreadyTransferred
		}

		description := fmt.Sprintf("Remainder from %s budget (%s to %s)",
			budget.Category.Name,
			budget.StartDate.Format("2006-01-02"), budget.EndDate.Format("2006-01-02"))
		movement, err := s.savings.DepositWithDB(tx, userID, remaining, models.SavingsSourceBudgetRemainder, description, nil, &budget.ID)
		if err != nil {
			return err
		}

		budget.SavingsTransferred = true
		budget.SavingsTransferAmount = remaining
		budget.SavingsTransferDate = &now
		view := newBudgetView(budget, spent)
		result = &TransferResult{SavingsMovement: *movement, Budget: &view}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CoverBudgetOverrunByID withdraws from savings to cover an overrun
// budget. With no explicit amount the full overrun is covered; an explicit
// amount is capped at the overrun.
func (s *transferService) CoverBudgetOverrunByID(userID, budgetID uint, amount *int64) (*TransferResult, error) {
	budget, err := s.budgets.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	overrun := budget.Spent - budget.Amount
	if overrun <= 0 {
		return nil, apperrors.ErrBudgetNotOverrun
	}

	cover := overrun
	if amount != nil {
		if *amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		if *amount < cover {
			cover = *amount
		}
	}

	// Checked here as well so an underfunded request fails before any
	// mutation is attempted.
	savings, err := s.savings.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if savings.Balance < cover {
		return nil, apperrors.ErrInsufficientSavings
	}

	description := fmt.Sprintf("Coverage for %s budget overrun", budget.Category.Name)
	movement, err := s.savings.Withdraw(userID, cover, models.SavingsSourceBudgetOverrun, description, nil, &budget.ID)
	if err != nil {
		return nil, err
	}

	return &TransferResult{SavingsMovement: *movement, Budget: budget}, nil
}

// ManualContribution deposits free money into savings. Free means not
// already spent and not already saved: lifetime income minus lifetime
// expense minus the current savings balance.
func (s *transferService) ManualContribution(userID uint, amount int64, description string) (*SavingsMovement, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	income, expense, err := s.ledger.LifetimeTotals(userID)
	if err != nil {
		return nil, err
	}
	savings, err := s.savings.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	available := income - expense - savings.Balance
	if available < 0 {
		available = 0
	}
	if amount > available {
		return nil, apperrors.ErrInsufficientAvailableBalance
	}

	return s.savings.Deposit(userID, amount, models.SavingsSourceManual, description, nil, nil)
}

// TransferBudgetSurplus moves a legacy monthly cycle's aggregate surplus
// into savings. Idempotency rides on the savings ledger's cycle dedup.
func (s *transferService) TransferBudgetSurplus(userID uint, month, year int) (*SavingsMovement, error) {
	start, end, err := cycleWindow(month, year)
	if err != nil {
		return nil, err
	}

	totalBudgeted, err := s.sumBudgetedInWindow(userID, start, end)
	if err != nil {
		return nil, err
	}
	totalSpent, err := s.ledger.SumAllExpenses(userID, start, end)
	if err != nil {
		return nil, err
	}

	remaining := totalBudgeted - totalSpent
	if remaining <= 0 {
		return nil, apperrors.ErrNothingToTransfer
	}

	cycle := &SavingsCycleRef{Month: month, Year: year}
	return s.savings.Deposit(userID, remaining, models.SavingsSourceBudgetSurplus, "", cycle, nil)
}

// CoverBudgetOverrun withdraws from savings against a legacy monthly
// cycle's overspend, tagging the audit record with the cycle.
func (s *transferService) CoverBudgetOverrun(userID uint, amount int64, month, year int) (*SavingsMovement, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if _, _, err := cycleWindow(month, year); err != nil {
		return nil, err
	}

	savings, err := s.savings.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if savings.Balance < amount {
		return nil, apperrors.ErrInsufficientSavings
	}

	cycle := &SavingsCycleRef{Month: month, Year: year}
	return s.savings.Withdraw(userID, amount, models.SavingsSourceBudgetOverrun, "", cycle, nil)
}

// GetTransferStatus is the read-only composite callers use to decide
// whether to offer surplus transfer or overrun coverage for a cycle.
func (s *transferService) GetTransferStatus(userID uint, month, year int) (*TransferStatus, error) {
	start, end, err := cycleWindow(month, year)
	if err != nil {
		return nil, err
	}

	totalBudgeted, err := s.sumBudgetedInWindow(userID, start, end)
	if err != nil {
		return nil, err
	}
	totalSpent, err := s.ledger.SumAllExpenses(userID, start, end)
	if err != nil {
		return nil, err
	}
	savings, err := s.savings.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	transferred, err := s.savings.IsCycleTransferred(userID, month, year)
	if err != nil {
		return nil, err
	}

	remaining := totalBudgeted - totalSpent
	var overrun int64
	if remaining < 0 {
		overrun = -remaining
	}

	return &TransferStatus{
		Month:              month,
		Year:               year,
		TotalBudgeted:      totalBudgeted,
		TotalSpent:         totalSpent,
		Remaining:          remaining,
		Overrun:            overrun,
		SavingsBalance:     savings.Balance,
		AlreadyTransferred: transferred,
		CanTransferSurplus: remaining > 0 && !transferred,
		CanCoverOverrun:    overrun > 0 && savings.Balance > 0,
	}, nil
}

// sumBudgetedInWindow totals the amounts of budgets contained in the
// cycle window.
func (s *transferService) sumBudgetedInWindow(userID uint, start, end time.Time) (int64, error) {
	var total int64
	err := s.db.Model(&models.Budget{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND start_date >= ? AND end_date <= ?", userID, start, end).
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// cycleWindow resolves a legacy (month, year) cycle to its UTC window.
func cycleWindow(month, year int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidPeriod, "month must be between 1 and 12")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end, nil
}
