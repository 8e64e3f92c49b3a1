package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studybuddy/backend/internal/cache"
	"studybuddy/backend/internal/models"
)

// region --- DTOs ---

// AvailabilityInput defines a weekly availability window. Times are "HH:MM".
type AvailabilityInput struct {
	DayOfWeek int    `json:"day_of_week" binding:"min=0,max=6" example:"1"`
	StartTime string `json:"start_time" binding:"required" example:"09:00"`
	EndTime   string `json:"end_time" binding:"required" example:"12:00"`
}

// AvailabilityResponse is one stored availability slot.
type AvailabilityResponse struct {
	ID        uint   `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func newAvailabilityResponse(slot models.AvailabilitySlot) AvailabilityResponse {
	return AvailabilityResponse{
		ID:        slot.ID,
		DayOfWeek: slot.DayOfWeek,
		StartTime: formatClock(slot.StartMinute),
		EndTime:   formatClock(slot.EndMinute),
	}
}

// endregion

// parseClock converts an "HH:MM" string to minutes from midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("time must be HH:MM")
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time out of range")
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AvailabilityHandler manages the authenticated user's weekly schedule.
type AvailabilityHandler struct {
	db    *gorm.DB
	cache *cache.MatchCache
}

// NewAvailabilityHandler builds an AvailabilityHandler.
func NewAvailabilityHandler(db *gorm.DB, c *cache.MatchCache) *AvailabilityHandler {
	return &AvailabilityHandler{db: db, cache: c}
}

// List godoc
// @Summary      List availability slots
// @Description  Returns the authenticated user's weekly availability slots.
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   AvailabilityResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	userID, _ := c.Get("userID")

	var slots []models.AvailabilitySlot
	if err := h.db.Where("user_id = ?", userID).Order("day_of_week, start_minute").Find(&slots).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch availability"})
		return
	}

	response := make([]AvailabilityResponse, 0, len(slots))
	for _, slot := range slots {
		response = append(response, newAvailabilityResponse(slot))
	}
	c.JSON(http.StatusOK, response)
}

// Create godoc
// @Summary      Add an availability slot
// @Description  Adds a weekly availability window. Slots may overlap each other; they are not deduplicated.
// @Tags         availability
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body AvailabilityInput true "Slot Info"
// @Success      201  {object}  AvailabilityResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input AvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := parseClock(input.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time: " + err.Error()})
		return
	}
	end, err := parseClock(input.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_time: " + err.Error()})
		return
	}
	if start >= end {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be before end_time"})
		return
	}

	slot := models.AvailabilitySlot{
		UserID:      userID.(uint),
		DayOfWeek:   input.DayOfWeek,
		StartMinute: start,
		EndMinute:   end,
	}
	if err := h.db.Create(&slot).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create slot"})
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID.(uint))

	c.JSON(http.StatusCreated, newAvailabilityResponse(slot))
}

// Delete godoc
// @Summary      Remove an availability slot
// @Description  Deletes one of the authenticated user's availability slots.
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Slot ID"
// @Success      200  {object}  map[string]string "{"message": "Slot removed"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me/availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	userID, _ := c.Get("userID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return
	}

	result := h.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.AvailabilitySlot{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete slot"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID.(uint))

	c.JSON(http.StatusOK, gin.H{"message": "Slot removed"})
}
