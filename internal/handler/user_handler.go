package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studybuddy/backend/internal/cache"
	"studybuddy/backend/internal/models"
	"studybuddy/backend/pkg/jwt"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Nickname   string `json:"nickname" binding:"required" example:"studybee"`
	Email      string `json:"email" binding:"required,email" example:"bee@example.com"`
	Password   string `json:"password" binding:"required,min=8" example:"password123"`
	StudyStyle string `json:"study_style" example:"visual"`
	StudyPace  string `json:"study_pace" example:"steady"`
	Location   string `json:"location" example:"North Campus"`
	Bio        string `json:"bio" example:"Third-year CS student"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"studybee"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// UpdateProfileInput defines the editable profile fields.
type UpdateProfileInput struct {
	AvatarURL  string `json:"avatar_url"`
	StudyStyle string `json:"study_style"`
	StudyPace  string `json:"study_pace"`
	Location   string `json:"location"`
	Bio        string `json:"bio"`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID         uint      `json:"id" example:"1"`
	Nickname   string    `json:"nickname" example:"studybee"`
	AvatarURL  string    `json:"avatar_url"`
	StudyStyle string    `json:"study_style"`
	StudyPace  string    `json:"study_pace"`
	Location   string    `json:"location"`
	Bio        string    `json:"bio"`
	JoinedAt   time.Time `json:"joined_at"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID         uint      `json:"id" example:"1"`
	Nickname   string    `json:"nickname" example:"studybee"`
	Email      string    `json:"email" example:"bee@example.com"`
	Verified   bool      `json:"verified"`
	AvatarURL  string    `json:"avatar_url"`
	StudyStyle string    `json:"study_style"`
	StudyPace  string    `json:"study_pace"`
	Location   string    `json:"location"`
	Bio        string    `json:"bio"`
	JoinedAt   time.Time `json:"joined_at"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

func newPublicUserResponse(user models.User) PublicUserResponse {
	return PublicUserResponse{
		ID:         user.ID,
		Nickname:   user.Nickname,
		AvatarURL:  user.AvatarURL,
		StudyStyle: user.StudyStyle,
		StudyPace:  user.StudyPace,
		Location:   user.Location,
		Bio:        user.Bio,
		JoinedAt:   user.CreatedAt,
	}
}

func newPrivateUserResponse(user models.User) PrivateUserResponse {
	return PrivateUserResponse{
		ID:         user.ID,
		Nickname:   user.Nickname,
		Email:      user.Email,
		Verified:   user.Verified,
		AvatarURL:  user.AvatarURL,
		StudyStyle: user.StudyStyle,
		StudyPace:  user.StudyPace,
		Location:   user.Location,
		Bio:        user.Bio,
		JoinedAt:   user.CreatedAt,
	}
}

// endregion

// UserHandler serves registration, login, and profile endpoints.
type UserHandler struct {
	db    *gorm.DB
	cache *cache.MatchCache
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(db *gorm.DB, c *cache.MatchCache) *UserHandler {
	return &UserHandler{db: db, cache: c}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token. New accounts start unverified.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existingUser models.User
	if err := h.db.Where("nickname = ? OR email = ?", input.Nickname, input.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Nickname or email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Nickname:     input.Nickname,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Active:       true,
		StudyStyle:   input.StudyStyle,
		StudyPace:    input.StudyPace,
		Location:     input.Location,
		Bio:          input.Bio,
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates a user with nickname/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("nickname = ? OR email = ?", input.Login, input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetMe godoc
// @Summary      Get own profile
// @Description  Returns the authenticated user's full profile.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := h.db.First(&user, userID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, newPrivateUserResponse(user))
}

// UpdateMe godoc
// @Summary      Update own profile
// @Description  Updates the authenticated user's profile fields and invalidates their cached entries.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{
		"avatar_url":  input.AvatarURL,
		"study_style": input.StudyStyle,
		"study_pace":  input.StudyPace,
		"location":    input.Location,
		"bio":         input.Bio,
	}
	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, newPrivateUserResponse(user))
}

// VerifyMe godoc
// @Summary      Mark own account verified
// @Description  Marks the authenticated user as verified. Verification delivery happens elsewhere; this records the outcome.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "Account verified"}"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me/verify [post]
func (h *UserHandler) VerifyMe(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := h.db.First(&user, userID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.db.Model(&user).Update("verified", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify account"})
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Account verified"})
}

// GetUserByID godoc
// @Summary      Get a user's public profile
// @Description  Returns a user's public profile, served from the profile cache when warm.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if raw, ok := h.cache.GetProfile(c.Request.Context(), uint(id)); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	response := newPublicUserResponse(user)
	if raw, err := json.Marshal(response); err == nil {
		h.cache.PutProfile(c.Request.Context(), user.ID, raw)
	}

	c.JSON(http.StatusOK, response)
}
