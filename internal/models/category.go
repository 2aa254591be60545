package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. Each user gets a set of
// default categories at registration; defaults keep their name and type
// for their whole lifetime and cannot be removed.
type Category struct {
	Base
	UserID      uint         `gorm:"not null;uniqueIndex:idx_categories_owner_name_type" json:"user_id"`
	Name        string       `gorm:"not null;uniqueIndex:idx_categories_owner_name_type" json:"name"`
	Type        CategoryType `gorm:"not null;uniqueIndex:idx_categories_owner_name_type" json:"type"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
	IsDefault   bool         `gorm:"default:false" json:"is_default"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
	Budgets      []Budget      `gorm:"foreignKey:CategoryID" json:"budgets,omitempty"`
}
