package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "nestegg/internal/errors"
	"nestegg/internal/models"
	"nestegg/internal/pagination"
)

// nonTerminalStatuses are the budget states the overlap check considers.
var nonTerminalStatuses = []models.BudgetStatus{
	models.BudgetStatusUpcoming,
	models.BudgetStatusActive,
}

// budgetService handles budget lifecycle business logic.
type budgetService struct {
	db     *gorm.DB
	ledger TransactionServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, ledger TransactionServicer) BudgetServicer {
	return &budgetService{db: db, ledger: ledger}
}

// resolvePeriod turns a BudgetPeriod into a concrete window. Explicit
// start/end dates and the legacy month/year form are mutually exclusive.
func resolvePeriod(period BudgetPeriod) (time.Time, time.Time, models.BudgetPeriodType, error) {
	hasDates := period.StartDate != nil && period.EndDate != nil
	hasCycle := period.Month != nil && period.Year != nil

	switch {
	case hasDates && hasCycle, !hasDates && !hasCycle:
		return time.Time{}, time.Time{}, "", apperrors.ErrMissingPeriod
	case hasCycle:
		if *period.Month < 1 || *period.Month > 12 {
			return time.Time{}, time.Time{}, "", apperrors.WithMessage(apperrors.ErrInvalidPeriod, "month must be between 1 and 12")
		}
		start := time.Date(*period.Year, time.Month(*period.Month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0).Add(-time.Second)
		return start, end, models.BudgetPeriodMonthly, nil
	default:
		start, end := *period.StartDate, *period.EndDate
		if !end.After(start) {
			return time.Time{}, time.Time{}, "", apperrors.ErrInvalidPeriod
		}
		periodType := models.BudgetPeriodCustom
		if d := end.Sub(start); d >= 6*24*time.Hour && d <= 7*24*time.Hour {
			periodType = models.BudgetPeriodWeekly
		}
		return start, end, periodType, nil
	}
}

// CreateBudget creates a new budget for an expense category.
func (s *budgetService) CreateBudget(userID, categoryID uint, amount int64, period BudgetPeriod, notes string) (*BudgetWithSpending, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Type != models.CategoryTypeExpense {
		return nil, apperrors.ErrInvalidCategoryType
	}

	start, end, periodType, err := resolvePeriod(period)
	if err != nil {
		return nil, err
	}

	// Apply due transitions first so the overlap check never sees a
	// stale non-terminal status.
	if err := s.RefreshStatuses(userID); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(userID, categoryID, start, end, 0); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		StartDate:  start,
		EndDate:    end,
		PeriodType: periodType,
		Notes:      notes,
	}
	budget.Status = budget.StatusAt(time.Now())

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.Category = category

	return s.withSpending(budget)
}

// checkOverlap fails with OVERLAPPING_BUDGET when a non-terminal budget for
// the same category intersects [start, end]. excludeID skips the budget
// being updated.
func (s *budgetService) checkOverlap(userID, categoryID uint, start, end time.Time, excludeID uint) error {
	q := s.db.Where("user_id = ? AND category_id = ?", userID, categoryID).
		Where("status IN ?", nonTerminalStatuses).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var conflict models.Budget
	if err := q.First(&conflict).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return apperrors.WithMessage(apperrors.ErrOverlappingBudget,
		fmt.Sprintf("A budget for this category already covers %s to %s",
			conflict.StartDate.Format("2006-01-02"), conflict.EndDate.Format("2006-01-02")))
}

// UpdateBudget updates an existing budget's fields. A budget whose
// remainder has been transferred to savings is frozen.
func (s *budgetService) UpdateBudget(userID, budgetID uint, changes BudgetChanges) (*BudgetWithSpending, error) {
	budget, err := s.getOwned(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if budget.SavingsTransferred {
		return nil, apperrors.ErrBudgetImmutable
	}

	start, end := budget.StartDate, budget.EndDate
	datesChanged := false
	if changes.StartDate != nil {
		start = *changes.StartDate
		datesChanged = true
	}
	if changes.EndDate != nil {
		end = *changes.EndDate
		datesChanged = true
	}

	updates := make(map[string]interface{})
	if changes.Amount != nil {
		if *changes.Amount <= 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		updates["amount"] = *changes.Amount
	}
	if changes.Notes != nil {
		updates["notes"] = *changes.Notes
	}

	if datesChanged {
		if !end.After(start) {
			return nil, apperrors.ErrInvalidPeriod
		}
		if err := s.RefreshStatuses(userID); err != nil {
			return nil, err
		}
		if err := s.checkOverlap(userID, budget.CategoryID, start, end, budget.ID); err != nil {
			return nil, err
		}
		updates["start_date"] = start
		updates["end_date"] = end
		if budget.Status != models.BudgetStatusCancelled {
			probe := models.Budget{StartDate: start, EndDate: end}
			updates["status"] = probe.StatusAt(time.Now())
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.withSpending(budget)
}

// DeleteBudget soft-deletes a budget. Deleting a transferred budget would
// orphan the savings audit trail, so those are locked.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.getOwned(userID, budgetID)
	if err != nil {
		return err
	}

	if budget.SavingsTransferred {
		return apperrors.ErrBudgetTransferLocked
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// getOwned fetches a budget scoped to its owner.
func (s *budgetService) getOwned(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetBudgetByID returns a budget merged with live spending figures.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*BudgetWithSpending, error) {
	if err := s.RefreshStatuses(userID); err != nil {
		return nil, err
	}
	budget, err := s.getOwned(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.withSpending(budget)
}

// GetUserBudgets returns a paginated list of budgets with live spending,
// optionally filtered by status and category.
func (s *budgetService) GetUserBudgets(userID uint, page pagination.PageRequest, status *models.BudgetStatus, categoryID *uint) (*pagination.PageResponse[BudgetWithSpending], error) {
	if err := s.RefreshStatuses(userID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}
	if categoryID != nil {
		base = base.Where("category_id = ?", *categoryID)
	}

	var totalItems int64
	if err := base.Session(&gorm.Session{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Session(&gorm.Session{}).Preload("Category").Scopes(pagination.Paginate(page)).
		Order("start_date DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views, err := s.withSpendingAll(budgets)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(views, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// RefreshStatuses applies due status transitions for one user's budgets.
// Completed transitions run first so a window that has both opened and
// closed since the last refresh lands directly on completed.
func (s *budgetService) RefreshStatuses(userID uint) error {
	return s.refreshStatuses(s.db.Where("user_id = ?", userID))
}

// RefreshAllStatuses applies due status transitions across all users.
// Called by the periodic sweep; per-user reads still refresh lazily.
func (s *budgetService) RefreshAllStatuses() error {
	return s.refreshStatuses(s.db)
}

func (s *budgetService) refreshStatuses(scope *gorm.DB) error {
	now := time.Now()

	err := scope.Session(&gorm.Session{}).Model(&models.Budget{}).
		Where("status IN ? AND end_date < ?", nonTerminalStatuses, now).
		Update("status", models.BudgetStatusCompleted).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = scope.Session(&gorm.Session{}).Model(&models.Budget{}).
		Where("status = ? AND start_date <= ? AND end_date >= ?", models.BudgetStatusUpcoming, now, now).
		Update("status", models.BudgetStatusActive).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return nil
}

// GetEndedForTransfer returns completed budgets that still hold an
// untransferred positive remainder, the set eligible for surplus transfer.
func (s *budgetService) GetEndedForTransfer(userID uint) ([]BudgetWithSpending, error) {
	if err := s.RefreshStatuses(userID); err != nil {
		return nil, err
	}

	var budgets []models.Budget
	err := s.db.Preload("Category").
		Where("user_id = ? AND status = ? AND savings_transferred = ?",
			userID, models.BudgetStatusCompleted, false).
		Order("end_date").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views, err := s.withSpendingAll(budgets)
	if err != nil {
		return nil, err
	}

	eligible := make([]BudgetWithSpending, 0, len(views))
	for _, v := range views {
		if v.Remaining > 0 {
			eligible = append(eligible, v)
		}
	}
	return eligible, nil
}

// GetOverrunBudgets returns active budgets whose spending exceeds their
// amount, the set eligible for coverage from savings.
func (s *budgetService) GetOverrunBudgets(userID uint) ([]OverrunBudget, error) {
	if err := s.RefreshStatuses(userID); err != nil {
		return nil, err
	}

	var budgets []models.Budget
	err := s.db.Preload("Category").
		Where("user_id = ? AND status = ?", userID, models.BudgetStatusActive).
		Order("end_date").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views, err := s.withSpendingAll(budgets)
	if err != nil {
		return nil, err
	}

	var overruns []OverrunBudget
	for _, v := range views {
		if v.IsOverBudget {
			overruns = append(overruns, OverrunBudget{
				BudgetWithSpending: v,
				Overrun:            v.Spent - v.Amount,
			})
		}
	}
	return overruns, nil
}

// withSpending merges a budget with its live spending figures.
func (s *budgetService) withSpending(budget *models.Budget) (*BudgetWithSpending, error) {
	spent, err := s.ledger.SumExpenses(budget.UserID, budget.CategoryID, budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, err
	}
	view := newBudgetView(*budget, spent)
	return &view, nil
}

func (s *budgetService) withSpendingAll(budgets []models.Budget) ([]BudgetWithSpending, error) {
	views := make([]BudgetWithSpending, 0, len(budgets))
	for i := range budgets {
		v, err := s.withSpending(&budgets[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func newBudgetView(budget models.Budget, spent int64) BudgetWithSpending {
	return BudgetWithSpending{
		Budget:       budget,
		Spent:        spent,
		Remaining:    budget.Amount - spent,
		Percentage:   percentageOf(spent, budget.Amount),
		IsOverBudget: spent > budget.Amount,
	}
}

// percentageOf is round(spent/amount*100). Amount is positive by creation
// invariant.
func percentageOf(spent, amount int64) int {
	if amount <= 0 {
		return 0
	}
	return int(math.Round(float64(spent) / float64(amount) * 100))
}
