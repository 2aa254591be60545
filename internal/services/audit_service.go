package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"nestegg/internal/logger"
	"nestegg/internal/models"
)

// auditService records money-moving and other sensitive operations.
// Logging is best-effort: a failed audit write is logged, never surfaced,
// so it cannot fail the operation it describes.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log writes an audit record for a user action.
func (s *auditService) Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{}) {
	entry := models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}

	if len(changes) > 0 {
		encoded, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Warnw("failed to encode audit changes", "action", action, "error", err)
		} else {
			entry.Changes = string(encoded)
		}
	}

	if err := s.db.Create(&entry).Error; err != nil {
		logger.Get().Warnw("failed to write audit log", "action", action, "user_id", userID, "error", err)
	}
}
