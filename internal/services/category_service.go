package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "nestegg/internal/errors"
	"nestegg/internal/models"
	"nestegg/internal/pagination"
)

// defaultCategories is the set seeded for every new user.
var defaultCategories = []models.Category{
	{Name: "Salary", Type: models.CategoryTypeIncome, Icon: "briefcase", Color: "#22c55e", IsDefault: true},
	{Name: "Other Income", Type: models.CategoryTypeIncome, Icon: "plus-circle", Color: "#10b981", IsDefault: true},
	{Name: "Groceries", Type: models.CategoryTypeExpense, Icon: "shopping-cart", Color: "#f59e0b", IsDefault: true},
	{Name: "Rent", Type: models.CategoryTypeExpense, Icon: "home", Color: "#ef4444", IsDefault: true},
	{Name: "Transport", Type: models.CategoryTypeExpense, Icon: "car", Color: "#3b82f6", IsDefault: true},
	{Name: "Utilities", Type: models.CategoryTypeExpense, Icon: "zap", Color: "#8b5cf6", IsDefault: true},
	{Name: "Entertainment", Type: models.CategoryTypeExpense, Icon: "film", Color: "#ec4899", IsDefault: true},
	{Name: "Other Expenses", Type: models.CategoryTypeExpense, Icon: "more-horizontal", Color: "#6b7280", IsDefault: true},
}

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a user-defined category.
func (s *categoryService) CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error) {
	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Type:        categoryType,
		Description: description,
		Icon:        icon,
		Color:       color,
	}

	if err := s.db.Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// SeedDefaults creates the default category set for a new user. Safe to
// call again: existing rows are left alone.
func (s *categoryService) SeedDefaults(userID uint) error {
	for _, template := range defaultCategories {
		category := template
		category.UserID = userID
		if err := s.db.Create(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

// GetUserCategories returns a paginated list of the user's categories.
func (s *categoryService) GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	return s.list(s.db.Where("user_id = ?", userID), page)
}

// GetUserCategoriesByType returns a paginated list filtered by type.
func (s *categoryService) GetUserCategoriesByType(userID uint, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	return s.list(s.db.Where("user_id = ? AND type = ?", userID, categoryType), page)
}

func (s *categoryService) list(scope *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	if err := scope.Session(&gorm.Session{}).Model(&models.Category{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := scope.Session(&gorm.Session{}).
		Scopes(pagination.Paginate(page)).
		Order("is_default DESC, name").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID returns a category scoped to its owner.
func (s *categoryService) GetCategoryByID(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates a category's display fields. Default categories
// keep their name for their whole lifetime.
func (s *categoryService) UpdateCategory(userID, categoryID uint, name, description, icon, color string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	if category.IsDefault && name != "" && name != category.Name {
		return nil, apperrors.ErrDefaultCategory
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrDuplicateCategory
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// DeleteCategory removes a category. Default categories and categories
// referenced by transactions or budgets are protected. The delete is hard
// so the (owner, name, type) slot can be reused afterwards.
func (s *categoryService) DeleteCategory(userID, categoryID uint) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	if category.IsDefault {
		return apperrors.ErrDefaultCategory
	}

	var inUse int64
	if err := s.db.Model(&models.Transaction{}).
		Where("category_id = ?", categoryID).
		Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse == 0 {
		if err := s.db.Model(&models.Budget{}).
			Where("category_id = ?", categoryID).
			Count(&inUse).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Unscoped().Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
