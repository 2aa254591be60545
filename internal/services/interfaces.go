package services

import (
	"time"

	"gorm.io/gorm"

	"nestegg/internal/models"
	"nestegg/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	SeedDefaults(userID uint) error
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID uint, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionServicer defines the contract for transaction-related business
// logic, including the ledger aggregation queries the budget and transfer
// engines read spending from.
type TransactionServicer interface {
	CreateTransaction(userID, categoryID uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID uint, amount *int64, description *string, date *time.Time) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error

	// SumExpenses totals expense transactions for a category inside the
	// inclusive date range. Always live, never cached.
	SumExpenses(userID, categoryID uint, from, to time.Time) (int64, error)
	// SumAllExpenses totals expense transactions across every category
	// inside the inclusive date range.
	SumAllExpenses(userID uint, from, to time.Time) (int64, error)
	// LifetimeTotals returns all-time income and expense sums for a user.
	LifetimeTotals(userID uint) (income int64, expense int64, err error)
}

// BudgetPeriod specifies a budget window: either an explicit start/end date
// pair or a legacy month/year pair. Exactly one form must be provided.
type BudgetPeriod struct {
	StartDate *time.Time
	EndDate   *time.Time
	Month     *int
	Year      *int
}

// BudgetChanges holds optional fields for a budget update. Nil fields are
// left untouched.
type BudgetChanges struct {
	Amount    *int64
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
}

// BudgetWithSpending merges a budget with its live spending figures.
type BudgetWithSpending struct {
	models.Budget
	Spent        int64 `json:"spent"`
	Remaining    int64 `json:"remaining"`
	Percentage   int   `json:"percentage"`
	IsOverBudget bool  `json:"is_over_budget"`
}

// OverrunBudget is an active budget whose spending exceeds its amount.
type OverrunBudget struct {
	BudgetWithSpending
	Overrun int64 `json:"overrun"`
}

// BudgetServicer defines the contract for budget lifecycle management.
type BudgetServicer interface {
	CreateBudget(userID, categoryID uint, amount int64, period BudgetPeriod, notes string) (*BudgetWithSpending, error)
	UpdateBudget(userID, budgetID uint, changes BudgetChanges) (*BudgetWithSpending, error)
	DeleteBudget(userID, budgetID uint) error
	GetBudgetByID(userID, budgetID uint) (*BudgetWithSpending, error)
	GetUserBudgets(userID uint, page pagination.PageRequest, status *models.BudgetStatus, categoryID *uint) (*pagination.PageResponse[BudgetWithSpending], error)

	// RefreshStatuses applies due upcoming->active and ->completed
	// transitions for one user. Idempotent; called before every
	// status-dependent read.
	RefreshStatuses(userID uint) error
	// RefreshAllStatuses is the cross-user variant used by the cron sweep.
	RefreshAllStatuses() error

	GetEndedForTransfer(userID uint) ([]BudgetWithSpending, error)
	GetOverrunBudgets(userID uint) ([]OverrunBudget, error)
}

// SavingsCycleRef identifies a legacy monthly budget cycle.
type SavingsCycleRef struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// SavingsMovement is the combined result of a deposit or withdrawal.
type SavingsMovement struct {
	Savings     *models.Savings            `json:"savings"`
	Transaction *models.SavingsTransaction `json:"transaction"`
}

// SavingsStatistics aggregates savings insight figures for dashboards.
type SavingsStatistics struct {
	Balance               int64      `json:"balance"`
	TotalDeposits         int64      `json:"total_deposits"`
	TotalWithdrawals      int64      `json:"total_withdrawals"`
	DepositsLast30Days    int64      `json:"deposits_last_30_days"`
	WithdrawalsLast30Days int64      `json:"withdrawals_last_30_days"`
	TransferredCycles     int        `json:"transferred_cycles"`
	LastTransactionDate   *time.Time `json:"last_transaction_date,omitempty"`
}

// SavingsServicer defines the contract for the savings ledger. Deposit and
// Withdraw are atomic: the balance mutation, cycle bookkeeping, and audit
// record either all apply or none do. The WithDB variants run inside a
// caller-owned transaction so an orchestrator can bind a savings movement
// and a budget mutation into one all-or-nothing unit.
type SavingsServicer interface {
	GetOrCreate(userID uint) (*models.Savings, error)
	Deposit(userID uint, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error)
	DepositWithDB(tx *gorm.DB, userID uint, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error)
	Withdraw(userID uint, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error)
	WithdrawWithDB(tx *gorm.DB, userID uint, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error)
	GetHistory(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.SavingsTransaction], error)
	GetStatistics(userID uint) (*SavingsStatistics, error)
	IsCycleTransferred(userID uint, month, year int) (bool, error)
}

// TransferResult combines a savings movement with the budget it touched.
type TransferResult struct {
	SavingsMovement
	Budget *BudgetWithSpending `json:"budget"`
}

// TransferStatus is the read-only composite callers use to decide whether
// to offer surplus transfer or overrun coverage for a cycle.
type TransferStatus struct {
	Month              int   `json:"month"`
	Year               int   `json:"year"`
	TotalBudgeted      int64 `json:"total_budgeted"`
	TotalSpent         int64 `json:"total_spent"`
	Remaining          int64 `json:"remaining"`
	Overrun            int64 `json:"overrun"`
	SavingsBalance     int64 `json:"savings_balance"`
	AlreadyTransferred bool  `json:"already_transferred"`
	CanTransferSurplus bool  `json:"can_transfer_surplus"`
	CanCoverOverrun    bool  `json:"can_cover_overrun"`
}

// TransferServicer orchestrates money movement between budgets and savings.
type TransferServicer interface {
	TransferBudgetRemainder(userID, budgetID uint) (*TransferResult, error)
	CoverBudgetOverrunByID(userID, budgetID uint, amount *int64) (*TransferResult, error)
	ManualContribution(userID uint, amount int64, description string) (*SavingsMovement, error)
	TransferBudgetSurplus(userID uint, month, year int) (*SavingsMovement, error)
	CoverBudgetOverrun(userID uint, amount int64, month, year int) (*SavingsMovement, error)
	GetTransferStatus(userID uint, month, year int) (*TransferStatus, error)
}

// DashboardPeriod selects the aggregation window for the dashboard.
type DashboardPeriod string

const (
	DashboardPeriodDaily   DashboardPeriod = "daily"
	DashboardPeriodWeekly  DashboardPeriod = "weekly"
	DashboardPeriodMonthly DashboardPeriod = "monthly"
	DashboardPeriodYearly  DashboardPeriod = "yearly"
)

// CategorySpend is one category's expense total inside a dashboard window.
type CategorySpend struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Total        int64  `json:"total"`
}

// DashboardSummary aggregates a user's finances over a window.
type DashboardSummary struct {
	Period             DashboardPeriod      `json:"period"`
	From               time.Time            `json:"from"`
	To                 time.Time            `json:"to"`
	TotalIncome        int64                `json:"total_income"`
	TotalExpense       int64                `json:"total_expense"`
	Net                int64                `json:"net"`
	ExpensesByCategory []CategorySpend      `json:"expenses_by_category"`
	Budgets            []BudgetWithSpending `json:"budgets"`
	Savings            *SavingsStatistics   `json:"savings"`
}

// DashboardServicer defines the contract for dashboard aggregation.
type DashboardServicer interface {
	GetSummary(userID uint, period DashboardPeriod, ref time.Time) (*DashboardSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
