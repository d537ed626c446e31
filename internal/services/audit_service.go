package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"platita/internal/logger"
	"platita/internal/models"
)

// auditService records mutating actions. Logging is best-effort: a failed
// audit write never fails the operation it describes.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an action; a failed write is reported to the app log only.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	entry := models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}

	if changes != nil {
		if encoded, err := json.Marshal(changes); err == nil {
			entry.Changes = string(encoded)
		}
	}

	if err := s.db.Create(&entry).Error; err != nil {
		logger.Get().Warnw("failed to write audit log",
			"action", action,
			"user_id", userID,
			"error", err.Error(),
		)
	}
}
