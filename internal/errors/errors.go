// Package errors provides custom error types for the Nestegg API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether the target is an AppError with the same code, so
// sentinel comparisons survive Wrap and WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound  = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse     = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions", StatusCode: http.StatusConflict}
	ErrDefaultCategory   = &AppError{Code: "DEFAULT_CATEGORY", Message: "Default categories cannot be renamed, retyped, or deleted", StatusCode: http.StatusBadRequest}
	ErrDuplicateCategory = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name and type already exists", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound  = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrCategoryTypeMismatch = &AppError{Code: "CATEGORY_TYPE_MISMATCH", Message: "Transaction type must match the category type", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound       = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrInvalidCategoryType  = &AppError{Code: "INVALID_CATEGORY_TYPE", Message: "Budgets can only be created for expense categories", StatusCode: http.StatusBadRequest}
	ErrMissingPeriod        = &AppError{Code: "MISSING_PERIOD", Message: "Either a start/end date pair or a month/year pair is required", StatusCode: http.StatusBadRequest}
	ErrInvalidPeriod        = &AppError{Code: "INVALID_PERIOD", Message: "End date must be after start date", StatusCode: http.StatusBadRequest}
	ErrOverlappingBudget    = &AppError{Code: "OVERLAPPING_BUDGET", Message: "A budget for this category already covers part of the requested period", StatusCode: http.StatusConflict}
	ErrBudgetImmutable      = &AppError{Code: "BUDGET_IMMUTABLE", Message: "This budget's remainder has been transferred to savings and can no longer be edited", StatusCode: http.StatusBadRequest}
	ErrBudgetTransferLocked = &AppError{Code: "BUDGET_TRANSFER_LOCKED", Message: "This budget's remainder has been transferred to savings and cannot be deleted", StatusCode: http.StatusBadRequest}
)

// Savings errors.
var (
	ErrInvalidAmount                = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
	ErrInsufficientSavings          = &AppError{Code: "INSUFFICIENT_SAVINGS", Message: "Savings balance is insufficient for this withdrawal", StatusCode: http.StatusBadRequest}
	ErrInsufficientAvailableBalance = &AppError{Code: "INSUFFICIENT_AVAILABLE_BALANCE", Message: "Amount exceeds the balance available for contribution", StatusCode: http.StatusBadRequest}
	ErrDuplicateTransfer            = &AppError{Code: "DUPLICATE_TRANSFER", Message: "The surplus for this cycle has already been transferred", StatusCode: http.StatusBadRequest}
	ErrAlreadyTransferred           = &AppError{Code: "ALREADY_TRANSFERRED", Message: "This budget's remainder has already been transferred", StatusCode: http.StatusBadRequest}
	ErrNothingToTransfer            = &AppError{Code: "NOTHING_TO_TRANSFER", Message: "There is no remaining amount to transfer", StatusCode: http.StatusBadRequest}
	ErrBudgetNotOverrun             = &AppError{Code: "BUDGET_NOT_OVERRUN", Message: "Spending has not exceeded this budget", StatusCode: http.StatusBadRequest}
)
