package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestBudgetFlow_CreateTrackSpendingUpdateDelete(t *testing.T) {
	app := setupApp(t)

	token, _, _ := app.registerUser(t, "budget@test.com", "password123")
	categoryID := app.categoryID(t, token, "expense")

	now := time.Now().UTC()

	// Step 1: Create a budget for the current month
	body := fmt.Sprintf(`{"category_id":%d,"amount":30000,"month":%d,"year":%d,"notes":"groceries cap"}`,
		int(categoryID), int(now.Month()), now.Year())
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	budget := result["budget"].(map[string]interface{})
	budgetID := budget["id"].(float64)
	if budget["status"] != "active" {
		t.Errorf("expected active status for current month, got %v", budget["status"])
	}
	if budget["remaining"] != float64(30000) {
		t.Errorf("expected remaining 30000 with no spending, got %v", budget["remaining"])
	}

	// Step 2: Record spending inside the window
	app.createTransaction(t, token, categoryID, "expense", 12500, now.Format(time.RFC3339))

	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%d", int(budgetID)), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get budget failed: %d %s", rec.Code, rec.Body.String())
	}
	budget = parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["spent"] != float64(12500) {
		t.Errorf("expected spent 12500, got %v", budget["spent"])
	}
	if budget["remaining"] != float64(17500) {
		t.Errorf("expected remaining 17500, got %v", budget["remaining"])
	}

	// Step 3: Raise the budget amount
	rec = app.request("PUT", fmt.Sprintf("/api/v1/budgets/%d", int(budgetID)),
		`{"amount":40000}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update budget failed: %d %s", rec.Code, rec.Body.String())
	}
	budget = parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["amount"] != float64(40000) {
		t.Errorf("expected amount 40000, got %v", budget["amount"])
	}
	if budget["remaining"] != float64(27500) {
		t.Errorf("expected remaining 27500, got %v", budget["remaining"])
	}

	// Step 4: List budgets shows the one budget
	rec = app.request("GET", "/api/v1/budgets", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list budgets failed: %d %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("expected 1 budget, got %d", len(data))
	}

	// Step 5: Delete the budget
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/budgets/%d", int(budgetID)), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete budget failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%d", int(budgetID)), "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestBudgetFlow_OverlapRejected(t *testing.T) {
	app := setupApp(t)

	token, _, _ := app.registerUser(t, "overlap@test.com", "password123")
	categoryID := app.categoryID(t, token, "expense")

	now := time.Now().UTC()
	body := fmt.Sprintf(`{"category_id":%d,"amount":30000,"month":%d,"year":%d}`,
		int(categoryID), int(now.Month()), now.Year())
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}

	// A custom window inside the same month must be rejected
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)
	body = fmt.Sprintf(`{"category_id":%d,"amount":10000,"start_date":%q,"end_date":%q}`,
		int(categoryID), start.Format(time.RFC3339), end.Format(time.RFC3339))
	rec = app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overlapping budget, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "OVERLAPPING_BUDGET" {
		t.Errorf("expected OVERLAPPING_BUDGET, got %v", errObj["code"])
	}

	// The same window for a different category is fine
	rec = app.request("GET", "/api/v1/categories?type=expense", "", token)
	categories := parseJSON(t, rec)["data"].([]interface{})
	var otherCategory float64
	for _, c := range categories {
		id := c.(map[string]interface{})["id"].(float64)
		if id != categoryID {
			otherCategory = id
			break
		}
	}
	if otherCategory == 0 {
		t.Fatal("expected a second seeded expense category")
	}
	body = fmt.Sprintf(`{"category_id":%d,"amount":10000,"month":%d,"year":%d}`,
		int(otherCategory), int(now.Month()), now.Year())
	rec = app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for different category, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBudgetFlow_UserIsolation(t *testing.T) {
	app := setupApp(t)

	tokenA, _, _ := app.registerUser(t, "owner@test.com", "password123")
	tokenB, _, _ := app.registerUser(t, "intruder@test.com", "password123")
	categoryID := app.categoryID(t, tokenA, "expense")

	now := time.Now().UTC()
	body := fmt.Sprintf(`{"category_id":%d,"amount":30000,"month":%d,"year":%d}`,
		int(categoryID), int(now.Month()), now.Year())
	rec := app.request("POST", "/api/v1/budgets", body, tokenA)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(float64)

	// Another user cannot see or delete it
	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%d", int(budgetID)), "", tokenB)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign budget, got %d", rec.Code)
	}
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/budgets/%d", int(budgetID)), "", tokenB)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting foreign budget, got %d", rec.Code)
	}
}
