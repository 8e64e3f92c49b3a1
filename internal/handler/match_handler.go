package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"studybuddy/backend/internal/cache"
	"studybuddy/backend/internal/match"
)

// MatchResponse is one ranked match entry.
type MatchResponse struct {
	CandidateID     uint      `json:"candidate_id"`
	DisplayName     string    `json:"display_name"`
	AvatarRef       string    `json:"avatar_ref"`
	StudyStyle      string    `json:"study_style"`
	StudyPace       string    `json:"study_pace"`
	Location        string    `json:"location"`
	Bio             string    `json:"bio"`
	JoinedAt        time.Time `json:"joined_at"`
	OverlapScore    int       `json:"overlap_score"`
	ConnectionState string    `json:"connection_state"`
}

func newMatchResponse(result match.MatchResult) MatchResponse {
	return MatchResponse{
		CandidateID:     result.UserID,
		DisplayName:     result.DisplayName,
		AvatarRef:       result.AvatarRef,
		StudyStyle:      result.StudyStyle,
		StudyPace:       result.StudyPace,
		Location:        result.Location,
		Bio:             result.Bio,
		JoinedAt:        result.JoinedAt,
		OverlapScore:    result.OverlapScore,
		ConnectionState: string(result.ConnectionState),
	}
}

// MatchHandler serves match discovery, gated by the rate limiter.
type MatchHandler struct {
	engine      *match.Engine
	limiter     *cache.RateLimiter
	maxRequests int
	window      time.Duration
}

// NewMatchHandler builds a MatchHandler.
func NewMatchHandler(engine *match.Engine, limiter *cache.RateLimiter, maxRequests int, window time.Duration) *MatchHandler {
	return &MatchHandler{engine: engine, limiter: limiter, maxRequests: maxRequests, window: window}
}

// RateLimit gates requests with a per-user fixed window. It runs before any
// engine work; a denied request never touches the store. Backend failures
// inside the limiter allow the request through.
func (h *MatchHandler) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := c.ClientIP()
		if userID, exists := c.Get("userID"); exists {
			identifier = fmt.Sprintf("user:%d", userID.(uint))
		}

		allowed, remaining := h.limiter.CheckAndIncrement(c.Request.Context(), identifier, h.maxRequests, h.window)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}

// GetMatches godoc
// @Summary      Find study partners
// @Description  Returns up to limit candidates sharing the given course or topic, ranked by weekly schedule overlap.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        context_type query  string true  "Context type (course or topic)"
// @Param        context_id   query  int    true  "Context ID"
// @Param        limit        query  int    false "Max results (capped at 10)" default(10)
// @Success      200  {array}   MatchResponse
// @Failure      400  {object}  ErrorResponse "Invalid or unassociated context"
// @Failure      401  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse "Rate limited"
// @Failure      500  {object}  ErrorResponse
// @Router       /matches [get]
func (h *MatchHandler) GetMatches(c *gin.Context) {
	userID, _ := c.Get("userID")

	contextType := match.ContextType(c.Query("context_type"))
	contextID, err := strconv.ParseUint(c.Query("context_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid context_id"})
		return
	}

	mc := match.Context{Type: contextType, ID: uint(contextID)}
	if !mc.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "context_type must be 'course' or 'topic'"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	results, err := h.engine.FindMatches(c.Request.Context(), userID.(uint), mc, limit)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	response := make([]MatchResponse, 0, len(results))
	for _, result := range results {
		response = append(response, newMatchResponse(result))
	}
	c.JSON(http.StatusOK, response)
}

// respondMatchError translates engine errors into HTTP responses. Validation
// and conflict outcomes get specific statuses; anything else is a store
// failure and surfaces as a generic 500.
func respondMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, match.ErrContextNotAssociated):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are not associated with this course or topic"})
	case errors.Is(err, match.ErrSelfTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send a request to yourself"})
	case errors.Is(err, match.ErrAlreadyConnected):
		c.JSON(http.StatusConflict, gin.H{"error": "You are already connected"})
	case errors.Is(err, match.ErrRequestPending):
		c.JSON(http.StatusConflict, gin.H{"error": "A request is already pending"})
	case errors.Is(err, match.ErrConnectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Connection not found"})
	case errors.Is(err, match.ErrNotRecipient):
		c.JSON(http.StatusForbidden, gin.H{"error": "You may not act on this request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
	}
}
