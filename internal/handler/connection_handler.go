package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studybuddy/backend/internal/match"
	"studybuddy/backend/internal/models"
)

// region --- DTOs ---

// ConnectionRequestInput optionally scopes a request to a course or topic.
type ConnectionRequestInput struct {
	ContextType string `json:"context_type" binding:"omitempty,oneof=course topic" example:"course"`
	ContextID   uint   `json:"context_id" example:"42"`
}

// ConnectionResponse describes a connection from the viewer's perspective.
type ConnectionResponse struct {
	ID          uint               `json:"id"`
	RequesterID uint               `json:"requester_id"`
	TargetID    uint               `json:"target_id"`
	ContextType string             `json:"context_type,omitempty"`
	ContextID   uint               `json:"context_id,omitempty"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	User        PublicUserResponse `json:"user"`
}

// endregion

// ConnectionHandler serves the connection request lifecycle.
type ConnectionHandler struct {
	engine *match.Engine
	db     *gorm.DB
}

// NewConnectionHandler builds a ConnectionHandler.
func NewConnectionHandler(engine *match.Engine, db *gorm.DB) *ConnectionHandler {
	return &ConnectionHandler{engine: engine, db: db}
}

// SendRequest godoc
// @Summary      Send a connection request
// @Description  Sends a study-partner request to another user, optionally scoped to a shared course or topic. Concurrent duplicates resolve to a single live connection.
// @Tags         connections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true   "Target User ID"
// @Param        input body      ConnectionRequestInput false "Optional context scope"
// @Success      201  {object}  map[string]interface{} "{"message": "Request sent", "connection_id": 1}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already connected or request pending"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/connect [post]
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	var input ConnectionRequestInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	mc := match.Context{Type: match.ContextType(input.ContextType), ID: input.ContextID}
	if !mc.IsZero() && !mc.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "context_type and context_id must be provided together"})
		return
	}

	rec, err := h.engine.SendConnectionRequest(c.Request.Context(), viewerID.(uint), uint(targetID), mc)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Request sent", "connection_id": rec.ID})
}

// Accept godoc
// @Summary      Accept a connection request
// @Description  Accepts a pending request addressed to the authenticated user.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Connection ID"
// @Success      200  {object}  map[string]string "{"message": "Request accepted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the recipient"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Router       /connections/{id}/accept [post]
func (h *ConnectionHandler) Accept(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid connection ID"})
		return
	}

	if err := h.engine.AcceptConnectionRequest(c.Request.Context(), uint(id), viewerID.(uint)); err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request accepted"})
}

// Decline godoc
// @Summary      Decline a connection request
// @Description  Declines (or withdraws) a pending request. The connection is deleted, not retained.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Connection ID"
// @Success      200  {object}  map[string]string "{"message": "Request declined"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not a participant"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Router       /connections/{id}/decline [post]
func (h *ConnectionHandler) Decline(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid connection ID"})
		return
	}

	if err := h.engine.DeclineConnectionRequest(c.Request.Context(), uint(id), viewerID.(uint)); err != nil {
		respondMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request declined"})
}

// List godoc
// @Summary      List connections
// @Description  Lists the authenticated user's connections, filterable by status and direction.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Filter by status (pending, accepted)"
// @Param        direction query     string  false  "Filter by direction (incoming, outgoing)"
// @Success      200       {array}   ConnectionResponse
// @Failure      401       {object}  ErrorResponse
// @Router       /users/me/connections [get]
func (h *ConnectionHandler) List(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	statusFilter := c.Query("status")
	directionFilter := c.Query("direction")

	query := h.db
	switch directionFilter {
	case "incoming":
		query = query.Where("target_id = ?", viewerID)
	case "outgoing":
		query = query.Where("requester_id = ?", viewerID)
	default:
		query = query.Where("requester_id = ? OR target_id = ?", viewerID, viewerID)
	}

	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}

	var connections []models.Connection
	if err := query.Preload("Requester").Preload("Target").Find(&connections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch connections"})
		return
	}

	response := make([]ConnectionResponse, 0, len(connections))
	for _, conn := range connections {
		// Show the user on the other side of the connection.
		other := conn.Target
		if conn.TargetID == viewerID.(uint) {
			other = conn.Requester
		}
		if other.ID == 0 {
			continue
		}

		response = append(response, ConnectionResponse{
			ID:          conn.ID,
			RequesterID: conn.RequesterID,
			TargetID:    conn.TargetID,
			ContextType: conn.ContextType,
			ContextID:   conn.ContextID,
			Status:      string(conn.Status),
			CreatedAt:   conn.CreatedAt,
			User:        newPublicUserResponse(other),
		})
	}

	c.JSON(http.StatusOK, response)
}
