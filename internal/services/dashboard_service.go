package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "nestegg/internal/errors"
	"nestegg/internal/models"
	"nestegg/internal/pagination"
)

// dashboardService aggregates a user's finances into one summary view.
type dashboardService struct {
	db      *gorm.DB
	budgets BudgetServicer
	savings SavingsServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, budgets BudgetServicer, savings SavingsServicer) DashboardServicer {
	return &dashboardService{db: db, budgets: budgets, savings: savings}
}

// GetSummary aggregates income, expenses, per-category spending, active
// budgets, and savings statistics over the window containing ref.
func (s *dashboardService) GetSummary(userID uint, period DashboardPeriod, ref time.Time) (*DashboardSummary, error) {
	from, to, err := dashboardWindow(period, ref)
	if err != nil {
		return nil, err
	}

	type row struct {
		Type  models.TransactionType
		Total int64
	}
	var rows []row
	err = s.db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &DashboardSummary{
		Period: period,
		From:   from,
		To:     to,
	}
	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			summary.TotalIncome = r.Total
		case models.TransactionTypeExpense:
			summary.TotalExpense = r.Total
		}
	}
	summary.Net = summary.TotalIncome - summary.TotalExpense

	err = s.db.Model(&models.Transaction{}).
		Select("transactions.category_id, categories.name AS category_name, COALESCE(SUM(transactions.amount), 0) AS total").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.date BETWEEN ? AND ?",
			userID, models.TransactionTypeExpense, from, to).
		Group("transactions.category_id, categories.name").
		Order("total DESC").
		Scan(&summary.ExpensesByCategory).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	active := models.BudgetStatusActive
	budgetPage, err := s.budgets.GetUserBudgets(userID, pagination.PageRequest{PageSize: 100}, &active, nil)
	if err != nil {
		return nil, err
	}
	summary.Budgets = budgetPage.Data

	stats, err := s.savings.GetStatistics(userID)
	if err != nil {
		return nil, err
	}
	summary.Savings = stats

	return summary, nil
}

// dashboardWindow resolves a period to the inclusive window containing ref.
func dashboardWindow(period DashboardPeriod, ref time.Time) (time.Time, time.Time, error) {
	ref = ref.UTC()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case DashboardPeriodDaily:
		return day, day.AddDate(0, 0, 1).Add(-time.Second), nil
	case DashboardPeriodWeekly:
		// Weeks start on Monday.
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7).Add(-time.Second), nil
	case DashboardPeriodMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0).Add(-time.Second), nil
	case DashboardPeriodYearly:
		start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0).Add(-time.Second), nil
	default:
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be one of daily, weekly, monthly, yearly")
	}
}
