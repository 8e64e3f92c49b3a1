package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studybuddy/backend/internal/cache"
	"studybuddy/backend/internal/models"
)

// region --- DTOs ---

// AssociationInput names a course or topic context.
type AssociationInput struct {
	ContextType string `json:"context_type" binding:"required,oneof=course topic" example:"course"`
	ContextID   uint   `json:"context_id" binding:"required" example:"42"`
}

// AssociationResponse is one context the user is associated with.
type AssociationResponse struct {
	ContextType string `json:"context_type"`
	ContextID   uint   `json:"context_id"`
	Active      bool   `json:"active"`
}

// endregion

// AssociationHandler manages the authenticated user's course and topic
// associations.
type AssociationHandler struct {
	db    *gorm.DB
	cache *cache.MatchCache
}

// NewAssociationHandler builds an AssociationHandler.
func NewAssociationHandler(db *gorm.DB, c *cache.MatchCache) *AssociationHandler {
	return &AssociationHandler{db: db, cache: c}
}

// contextExists checks that the referenced course or topic exists.
func (h *AssociationHandler) contextExists(contextType string, contextID uint) (bool, error) {
	var count int64
	var err error
	switch contextType {
	case "course":
		err = h.db.Model(&models.Course{}).Where("id = ?", contextID).Count(&count).Error
	case "topic":
		err = h.db.Model(&models.Topic{}).Where("id = ?", contextID).Count(&count).Error
	}
	return count > 0, err
}

// List godoc
// @Summary      List context associations
// @Description  Returns the courses and topics the authenticated user is associated with.
// @Tags         contexts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   AssociationResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/contexts [get]
func (h *AssociationHandler) List(c *gin.Context) {
	userID, _ := c.Get("userID")

	var associations []models.ContextAssociation
	if err := h.db.Where("user_id = ?", userID).Find(&associations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch associations"})
		return
	}

	response := make([]AssociationResponse, 0, len(associations))
	for _, a := range associations {
		response = append(response, AssociationResponse{
			ContextType: a.ContextType,
			ContextID:   a.ContextID,
			Active:      a.Active,
		})
	}
	c.JSON(http.StatusOK, response)
}

// Join godoc
// @Summary      Join a course or topic
// @Description  Associates the authenticated user with a course or topic, reactivating a previous association if one exists.
// @Tags         contexts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body AssociationInput true "Context to join"
// @Success      201  {object}  AssociationResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Course or topic not found"
// @Router       /users/me/contexts [post]
func (h *AssociationHandler) Join(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input AssociationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := h.contextExists(input.ContextType, input.ContextID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up context"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course or topic not found"})
		return
	}

	association := models.ContextAssociation{
		UserID:      userID.(uint),
		ContextType: input.ContextType,
		ContextID:   input.ContextID,
		Active:      true,
	}
	// Upsert: rejoining a context just reactivates the association.
	err = h.db.Where(models.ContextAssociation{
		UserID:      association.UserID,
		ContextType: association.ContextType,
		ContextID:   association.ContextID,
	}).Assign(models.ContextAssociation{Active: true}).FirstOrCreate(&association).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create association"})
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID.(uint))

	c.JSON(http.StatusCreated, AssociationResponse{
		ContextType: association.ContextType,
		ContextID:   association.ContextID,
		Active:      association.Active,
	})
}

// Leave godoc
// @Summary      Leave a course or topic
// @Description  Deactivates the authenticated user's association with a course or topic.
// @Tags         contexts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body AssociationInput true "Context to leave"
// @Success      200  {object}  map[string]string "{"message": "Association removed"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Association not found"
// @Router       /users/me/contexts [delete]
func (h *AssociationHandler) Leave(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input AssociationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.db.Model(&models.ContextAssociation{}).
		Where("user_id = ? AND context_type = ? AND context_id = ? AND active = ?",
			userID, input.ContextType, input.ContextID, true).
		Update("active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove association"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Association not found"})
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID.(uint))

	c.JSON(http.StatusOK, gin.H{"message": "Association removed"})
}
