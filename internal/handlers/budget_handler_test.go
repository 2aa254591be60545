package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "nestegg/internal/errors"
	"nestegg/internal/models"
	"nestegg/internal/pagination"
	"nestegg/internal/services"
)

var _ services.BudgetServicer = (*mockBudgetService)(nil)

type mockBudgetService struct {
	createBudgetFn        func(userID, categoryID uint, amount int64, period services.BudgetPeriod, notes string) (*services.BudgetWithSpending, error)
	updateBudgetFn        func(userID, budgetID uint, changes services.BudgetChanges) (*services.BudgetWithSpending, error)
	deleteBudgetFn        func(userID, budgetID uint) error
	getBudgetByIDFn       func(userID, budgetID uint) (*services.BudgetWithSpending, error)
	getUserBudgetsFn      func(userID uint, page pagination.PageRequest, status *models.BudgetStatus, categoryID *uint) (*pagination.PageResponse[services.BudgetWithSpending], error)
	getEndedForTransferFn func(userID uint) ([]services.BudgetWithSpending, error)
	getOverrunBudgetsFn   func(userID uint) ([]services.OverrunBudget, error)
}

func (m *mockBudgetService) CreateBudget(userID, categoryID uint, amount int64, period services.BudgetPeriod, notes string) (*services.BudgetWithSpending, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, categoryID, amount, period, notes)
	}
	return &services.BudgetWithSpending{}, nil
}

func (m *mockBudgetService) UpdateBudget(userID, budgetID uint, changes services.BudgetChanges) (*services.BudgetWithSpending, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, changes)
	}
	return &services.BudgetWithSpending{}, nil
}

func (m *mockBudgetService) DeleteBudget(userID, budgetID uint) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, budgetID)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetByID(userID, budgetID uint) (*services.BudgetWithSpending, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return &services.BudgetWithSpending{}, nil
}

func (m *mockBudgetService) GetUserBudgets(userID uint, page pagination.PageRequest, status *models.BudgetStatus, categoryID *uint) (*pagination.PageResponse[services.BudgetWithSpending], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, page, status, categoryID)
	}
	return &pagination.PageResponse[services.BudgetWithSpending]{}, nil
}

func (m *mockBudgetService) RefreshStatuses(_ uint) error { return nil }

func (m *mockBudgetService) RefreshAllStatuses() error { return nil }

func (m *mockBudgetService) GetEndedForTransfer(userID uint) ([]services.BudgetWithSpending, error) {
	if m.getEndedForTransferFn != nil {
		return m.getEndedForTransferFn(userID)
	}
	return nil, nil
}

func (m *mockBudgetService) GetOverrunBudgets(userID uint) ([]services.OverrunBudget, error) {
	if m.getOverrunBudgetsFn != nil {
		return m.getOverrunBudgetsFn(userID)
	}
	return nil, nil
}

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	budgets := r.Group("/budgets", injectUserID(1))
	{
		budgets.POST("", handler.CreateBudget)
		budgets.GET("", handler.GetBudgets)
		budgets.GET("/transfer-eligible", handler.GetTransferEligible)
		budgets.GET("/overrun", handler.GetOverrunBudgets)
		budgets.GET("/:id", handler.GetBudget)
		budgets.PUT("/:id", handler.UpdateBudget)
		budgets.DELETE("/:id", handler.DeleteBudget)
	}
	return r
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 with budget", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(userID, categoryID uint, amount int64, period services.BudgetPeriod, _ string) (*services.BudgetWithSpending, error) {
				if userID != 1 {
					t.Errorf("expected userID 1, got %d", userID)
				}
				if period.Month == nil || *period.Month != 3 {
					t.Error("expected month 3 in period")
				}
				return &services.BudgetWithSpending{
					Budget: models.Budget{
						Base:       models.Base{ID: 10},
						CategoryID: categoryID,
						Amount:     amount,
						Status:     models.BudgetStatusUpcoming,
					},
					Remaining: amount,
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":2,"amount":30000,"month":3,"year":2026}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		budget := result["budget"].(map[string]interface{})
		if budget["amount"] != float64(30000) {
			t.Errorf("expected amount 30000, got %v", budget["amount"])
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", `{"category_id":2}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on negative amount", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", `{"category_id":2,"amount":-500,"month":3,"year":2026}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on overlapping budget", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(_, _ uint, _ int64, _ services.BudgetPeriod, _ string) (*services.BudgetWithSpending, error) {
				return nil, apperrors.ErrOverlappingBudget
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":2,"amount":30000,"month":3,"year":2026}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "OVERLAPPING_BUDGET")
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("passes filters to service", func(t *testing.T) {
		var gotStatus *models.BudgetStatus
		var gotCategoryID *uint
		budgetSvc := &mockBudgetService{
			getUserBudgetsFn: func(_ uint, page pagination.PageRequest, status *models.BudgetStatus, categoryID *uint) (*pagination.PageResponse[services.BudgetWithSpending], error) {
				gotStatus = status
				gotCategoryID = categoryID
				return &pagination.PageResponse[services.BudgetWithSpending]{
					Data: []services.BudgetWithSpending{}, Page: page.Page,
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets?status=active&category_id=4", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotStatus == nil || *gotStatus != models.BudgetStatusActive {
			t.Error("expected active status filter")
		}
		if gotCategoryID == nil || *gotCategoryID != 4 {
			t.Error("expected category filter 4")
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets?status=archived", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad category_id", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets?category_id=abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns budget with spending", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(_, budgetID uint) (*services.BudgetWithSpending, error) {
				return &services.BudgetWithSpending{
					Budget:     models.Budget{Base: models.Base{ID: budgetID}, Amount: 30000},
					Spent:      25000,
					Remaining:  5000,
					Percentage: 83,
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		budget := result["budget"].(map[string]interface{})
		if budget["spent"] != float64(25000) {
			t.Errorf("expected spent 25000, got %v", budget["spent"])
		}
		if budget["remaining"] != float64(5000) {
			t.Errorf("expected remaining 5000, got %v", budget["remaining"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(_, _ uint) (*services.BudgetWithSpending, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/999", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})

	t.Run("returns 400 on non-numeric id", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("passes changes to service", func(t *testing.T) {
		var gotChanges services.BudgetChanges
		budgetSvc := &mockBudgetService{
			updateBudgetFn: func(_, budgetID uint, changes services.BudgetChanges) (*services.BudgetWithSpending, error) {
				gotChanges = changes
				return &services.BudgetWithSpending{
					Budget: models.Budget{Base: models.Base{ID: budgetID}, Amount: *changes.Amount},
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/10", `{"amount":40000,"notes":"raised"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotChanges.Amount == nil || *gotChanges.Amount != 40000 {
			t.Error("expected amount change 40000")
		}
		if gotChanges.Notes == nil || *gotChanges.Notes != "raised" {
			t.Error("expected notes change")
		}
		if gotChanges.StartDate != nil {
			t.Error("expected no start date change")
		}
	})

	t.Run("returns 400 on immutable budget", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			updateBudgetFn: func(_, _ uint, _ services.BudgetChanges) (*services.BudgetWithSpending, error) {
				return nil, apperrors.ErrBudgetImmutable
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/10", `{"amount":40000}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_IMMUTABLE")
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	t.Run("returns confirmation message", func(t *testing.T) {
		deleted := false
		budgetSvc := &mockBudgetService{
			deleteBudgetFn: func(_, budgetID uint) error {
				if budgetID != 10 {
					t.Errorf("expected budget 10, got %d", budgetID)
				}
				deleted = true
				return nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets/10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !deleted {
			t.Error("expected service delete to be called")
		}
	})

	t.Run("returns 400 when transfer locked", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			deleteBudgetFn: func(_, _ uint) error {
				return apperrors.ErrBudgetTransferLocked
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets/10", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_TRANSFER_LOCKED")
	})
}

func TestBudgetHandler_GetTransferEligible(t *testing.T) {
	t.Run("returns eligible budgets", func(t *testing.T) {
		now := time.Now()
		budgetSvc := &mockBudgetService{
			getEndedForTransferFn: func(_ uint) ([]services.BudgetWithSpending, error) {
				return []services.BudgetWithSpending{
					{
						Budget:    models.Budget{Base: models.Base{ID: 10}, Amount: 30000, EndDate: now},
						Spent:     25000,
						Remaining: 5000,
					},
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/transfer-eligible", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		budgets := result["budgets"].([]interface{})
		if len(budgets) != 1 {
			t.Fatalf("expected 1 budget, got %d", len(budgets))
		}
	})
}

func TestBudgetHandler_GetOverrunBudgets(t *testing.T) {
	t.Run("returns overrun budgets", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getOverrunBudgetsFn: func(_ uint) ([]services.OverrunBudget, error) {
				return []services.OverrunBudget{
					{
						BudgetWithSpending: services.BudgetWithSpending{
							Budget:       models.Budget{Base: models.Base{ID: 10}, Amount: 30000},
							Spent:        35000,
							Remaining:    -5000,
							IsOverBudget: true,
						},
						Overrun: 5000,
					},
				}, nil
			},
		}
		handler := NewBudgetHandler(budgetSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/overrun", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		budgets := result["budgets"].([]interface{})
		if len(budgets) != 1 {
			t.Fatalf("expected 1 budget, got %d", len(budgets))
		}
		overrun := budgets[0].(map[string]interface{})
		if overrun["overrun"] != float64(5000) {
			t.Errorf("expected overrun 5000, got %v", overrun["overrun"])
		}
	})
}
