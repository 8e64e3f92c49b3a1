package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studybuddy/backend/internal/models"
)

type TopicInput struct {
	Name string `json:"name" binding:"required" example:"Linear Algebra"`
}

type TopicResponse struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
}

func newTopicResponse(topic models.Topic) TopicResponse {
	return TopicResponse{
		ID:        topic.ID,
		CreatedAt: topic.CreatedAt,
		UpdatedAt: topic.UpdatedAt,
		Name:      topic.Name,
	}
}

// TopicHandler serves the topic catalog.
type TopicHandler struct {
	db *gorm.DB
}

// NewTopicHandler builds a TopicHandler.
func NewTopicHandler(db *gorm.DB) *TopicHandler {
	return &TopicHandler{db: db}
}

// List godoc
// @Summary      List topics
// @Description  Retrieves a list of all available study topics.
// @Tags         topics
// @Produce      json
// @Success      200  {array}   TopicResponse
// @Router       /topics [get]
func (h *TopicHandler) List(c *gin.Context) {
	var topics []models.Topic
	h.db.Find(&topics)

	var response []TopicResponse
	for _, topic := range topics {
		response = append(response, newTopicResponse(topic))
	}
	c.JSON(http.StatusOK, response)
}

// Create godoc
// @Summary      Create a new topic
// @Description  Creates a new study topic.
// @Tags         admin-topics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body TopicInput true "Topic Info"
// @Success      201  {object}  TopicResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      409  {object}  ErrorResponse "Topic already exists"
// @Router       /admin/topics [post]
func (h *TopicHandler) Create(c *gin.Context) {
	var input TopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topic := models.Topic{Name: input.Name}
	if err := h.db.Create(&topic).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Topic already exists or another error occurred"})
		return
	}

	c.JSON(http.StatusCreated, newTopicResponse(topic))
}

// Update godoc
// @Summary      Update a topic
// @Description  Updates the name of an existing topic.
// @Tags         admin-topics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int        true  "Topic ID"
// @Param        input body      TopicInput true  "New Topic Info"
// @Success      200   {object}  TopicResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Admin access required"
// @Failure      404   {object}  ErrorResponse "Topic not found"
// @Router       /admin/topics/{id} [put]
func (h *TopicHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var input TopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var topic models.Topic
	if err := h.db.First(&topic, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	h.db.Model(&topic).Update("name", input.Name)
	c.JSON(http.StatusOK, newTopicResponse(topic))
}

// Delete godoc
// @Summary      Delete a topic
// @Description  Removes a study topic.
// @Tags         admin-topics
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Topic ID"
// @Success      200  {object}  map[string]string "{"message": "Topic deleted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Topic not found"
// @Router       /admin/topics/{id} [delete]
func (h *TopicHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	result := h.db.Delete(&models.Topic{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete topic"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Topic deleted"})
}
