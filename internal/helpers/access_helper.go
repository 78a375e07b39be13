package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldenvr/stagepass/internal/models"
)

type Action string

const (
	ActionManageEvent Action = "event:manage"
	ActionCheckIn     Action = "event:check_in"
)

// Actor is the authenticated principal attached by the JWT middleware.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func ActorFromContext(c *gin.Context) (Actor, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return Actor{}, false
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		return Actor{}, false
	}
	role, _ := c.Get("role")
	roleName, _ := role.(string)
	return Actor{UserID: id, Role: roleName}, true
}

// Can is the explicit capability check consulted before any organizer-side
// read or write: (actor, resource, action) evaluated in application code.
func (a Actor) Can(db *gorm.DB, action Action, eventID uuid.UUID) bool {
	if a.Role == "admin" {
		return true
	}
	switch action {
	case ActionManageEvent, ActionCheckIn:
		var event models.Event
		err := db.Where("id = ? AND user_id = ?", eventID, a.UserID).First(&event).Error
		return err == nil
	}
	return false
}
