package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studybuddy/backend/internal/models"
)

// region --- DTOs ---

type CourseInput struct {
	Code        string `json:"code" binding:"required" example:"CS-301"`
	Name        string `json:"name" binding:"required" example:"Operating Systems"`
	Description string `json:"description"`
}

type CourseResponse struct {
	ID          uint   `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:          course.ID,
		Code:        course.Code,
		Name:        course.Name,
		Description: course.Description,
	}
}

// PaginatedCourseResponse defines the structure for a paginated list of courses.
type PaginatedCourseResponse struct {
	Data []CourseResponse `json:"data"`
	Meta PaginationMeta   `json:"meta"`
}

// endregion

// CourseHandler serves the course catalog.
type CourseHandler struct {
	db *gorm.DB
}

// NewCourseHandler builds a CourseHandler.
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{db: db}
}

// List godoc
// @Summary      List courses
// @Description  Returns the course catalog, optionally filtered by a search query, with pagination.
// @Tags         courses
// @Produce      json
// @Param        q     query     string  false  "Search query for code or name"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(20)
// @Success      200   {object}  PaginatedCourseResponse
// @Router       /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := h.db.Model(&models.Course{})
	if q := c.Query("q"); q != "" {
		query = query.Where("code ILIKE ? OR name ILIKE ?", "%"+q+"%", "%"+q+"%")
	}

	paginated, err := Paginate[models.Course](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve courses"})
		return
	}

	data := make([]CourseResponse, 0, len(paginated.Data))
	for _, course := range paginated.Data {
		data = append(data, newCourseResponse(course))
	}
	c.JSON(http.StatusOK, PaginatedCourseResponse{Data: data, Meta: paginated.Meta})
}

// Create godoc
// @Summary      Create a course
// @Description  Creates a new course in the catalog.
// @Tags         admin-courses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CourseInput true "Course Info"
// @Success      201  {object}  CourseResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      409  {object}  ErrorResponse "Course already exists"
// @Router       /admin/courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var input CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course := models.Course{Code: input.Code, Name: input.Name, Description: input.Description}
	if err := h.db.Create(&course).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Course already exists or another error occurred"})
		return
	}

	c.JSON(http.StatusCreated, newCourseResponse(course))
}

// Update godoc
// @Summary      Update a course
// @Description  Updates a course's details.
// @Tags         admin-courses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int         true  "Course ID"
// @Param        input body      CourseInput true  "New Course Info"
// @Success      200   {object}  CourseResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Admin access required"
// @Failure      404   {object}  ErrorResponse "Course not found"
// @Router       /admin/courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var input CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var course models.Course
	if err := h.db.First(&course, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	updates := map[string]interface{}{
		"code":        input.Code,
		"name":        input.Name,
		"description": input.Description,
	}
	if err := h.db.Model(&course).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update course"})
		return
	}

	c.JSON(http.StatusOK, newCourseResponse(course))
}

// Delete godoc
// @Summary      Delete a course
// @Description  Removes a course from the catalog.
// @Tags         admin-courses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Course ID"
// @Success      200  {object}  map[string]string "{"message": "Course deleted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Course not found"
// @Router       /admin/courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	result := h.db.Delete(&models.Course{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete course"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}
