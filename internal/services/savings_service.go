package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "nestegg/internal/errors"
	"nestegg/internal/models"
	"nestegg/internal/pagination"
)

// savingsService owns the savings account and its append-only audit log.
//
// Every balance mutation and its audit record are applied inside one
// database transaction: a failure between the two rolls both back, so
// balance == total_deposits - total_withdrawals holds even across crashes.
type savingsService struct {
	db *gorm.DB
}

// NewSavingsService creates a new SavingsServicer.
func NewSavingsService(db *gorm.DB) SavingsServicer {
	return &savingsService{db: db}
}

// GetOrCreate returns the user's savings account, creating a zero-balance
// one on first access.
func (s *savingsService) GetOrCreate(userID uint) (*models.Savings, error) {
	return s.getOrCreate(s.db, userID)
}

// getOrCreate resolves concurrent first access through the unique index on
// user_id: the loser of a create race re-reads the winner's row.
func (s *savingsService) getOrCreate(tx *gorm.DB, userID uint) (*models.Savings, error) {
	var savings models.Savings
	err := tx.Where("user_id = ?", userID).First(&savings).Error
	if err == nil {
		return &savings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	savings = models.Savings{UserID: userID}
	if err := tx.Create(&savings).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := tx.Where("user_id = ?", userID).First(&savings).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return &savings, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &savings, nil
}

// Deposit credits the savings account inside its own transaction.
func (s *savingsService) Deposit(userID uint, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error) {
	var result *SavingsMovement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.DepositWithDB(tx, userID, amount, source, description, cycle, budgetID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DepositWithDB credits the savings account within a caller-owned
// transaction. For legacy budget_surplus deposits carrying a cycle, the
// cycle row is inserted first; its unique (user, month, year) index fails
// the second of two racing transfers with DUPLICATE_TRANSFER.
func (s *savingsService) DepositWithDB(tx *gorm.DB, userID uint, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	savings, err := s.getOrCreate(tx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if source == models.SavingsSourceBudgetSurplus && cycle != nil {
		var count int64
		if err := tx.Model(&models.SavingsCycle{}).
			Where("user_id = ? AND month = ? AND year = ?", userID, cycle.Month, cycle.Year).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateTransfer
		}

		cycleRow := &models.SavingsCycle{
			SavingsID:     savings.ID,
			UserID:        userID,
			Month:         cycle.Month,
			Year:          cycle.Year,
			Amount:        amount,
			TransferredAt: now,
		}
		if err := tx.Create(cycleRow).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrDuplicateTransfer
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	res := tx.Model(&models.Savings{}).Where("id = ?", savings.ID).
		Updates(map[string]interface{}{
			"balance":               gorm.Expr("balance + ?", amount),
			"total_deposits":        gorm.Expr("total_deposits + ?", amount),
			"last_transaction_date": now,
		})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	return s.appendRecord(tx, savings, models.SavingsTransactionCredit, amount, source, description, cycle, budgetID)
}

// Withdraw debits the savings account inside its own transaction.
func (s *savingsService) Withdraw(userID uint, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error) {
	var result *SavingsMovement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.WithdrawWithDB(tx, userID, amount, source, description, cycle, budgetID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// WithdrawWithDB debits the savings account within a caller-owned
// transaction. The sufficiency check and the debit are one conditional
// UPDATE, so two concurrent withdrawals can never drive the balance
// negative: whichever commits second matches no row.
func (s *savingsService) WithdrawWithDB(tx *gorm.DB, userID uint, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	savings, err := s.getOrCreate(tx, userID)
	if err != nil {
		return nil, err
	}

	res := tx.Model(&models.Savings{}).
		Where("id = ? AND balance >= ?", savings.ID, amount).
		Updates(map[string]interface{}{
			"balance":               gorm.Expr("balance - ?", amount),
			"total_withdrawals":     gorm.Expr("total_withdrawals + ?", amount),
			"last_transaction_date": time.Now(),
		})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrInsufficientSavings
	}

	return s.appendRecord(tx, savings, models.SavingsTransactionDebit, amount, source, description, cycle, budgetID)
}

// appendRecord re-reads the mutated savings row and appends the audit
// record with the post-movement balance snapshot.
func (s *savingsService) appendRecord(tx *gorm.DB, savings *models.Savings, recordType models.SavingsTransactionType, amount int64, source models.SavingsSource, description string, cycle *SavingsCycleRef, budgetID *uint) (*SavingsMovement, error) {
	if err := tx.First(savings, savings.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if description == "" {
		description = source.DefaultDescription()
	}

	record := &models.SavingsTransaction{
		UserID:       savings.UserID,
		Type:         recordType,
		Amount:       amount,
		Source:       source,
		Description:  description,
		BudgetID:     budgetID,
		BalanceAfter: savings.Balance,
	}
	if cycle != nil {
		month, year := cycle.Month, cycle.Year
		record.CycleMonth = &month
		record.CycleYear = &year
	}

	if err := tx.Create(record).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &SavingsMovement{Savings: savings, Transaction: record}, nil
}

// GetHistory returns the savings audit log, newest first.
func (s *savingsService) GetHistory(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.SavingsTransaction], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.SavingsTransaction{}).
		Where("user_id = ?", userID).
		Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.SavingsTransaction
	if err := s.db.Where("user_id = ?", userID).
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetStatistics aggregates savings insight figures for the dashboard.
func (s *savingsService) GetStatistics(userID uint) (*SavingsStatistics, error) {
	savings, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -30)
	type row struct {
		Type  models.SavingsTransactionType
		Total int64
	}
	var rows []row
	err = s.db.Model(&models.SavingsTransaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &SavingsStatistics{
		Balance:             savings.Balance,
		TotalDeposits:       savings.TotalDeposits,
		TotalWithdrawals:    savings.TotalWithdrawals,
		LastTransactionDate: savings.LastTransactionDate,
	}
	for _, r := range rows {
		switch r.Type {
		case models.SavingsTransactionCredit:
			stats.DepositsLast30Days = r.Total
		case models.SavingsTransactionDebit:
			stats.WithdrawalsLast30Days = r.Total
		}
	}

	var cycles int64
	if err := s.db.Model(&models.SavingsCycle{}).Where("user_id = ?", userID).Count(&cycles).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats.TransferredCycles = int(cycles)

	return stats, nil
}

// IsCycleTransferred reports whether a legacy cycle's surplus was already
// moved to savings.
func (s *savingsService) IsCycleTransferred(userID uint, month, year int) (bool, error) {
	var count int64
	err := s.db.Model(&models.SavingsCycle{}).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}
