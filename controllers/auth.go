package controllers

import (
	"net/http"
	"time"

	"referral-tracking-api/config"
	"referral-tracking-api/middleware"
	"referral-tracking-api/models"
	"referral-tracking-api/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type AuthController struct {
	users *services.UserService
}

func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

type LoginRequest struct {
	EmpID    string `json:"emp_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Message string      `json:"message"`
}

type BulkRegisterRequest struct {
	Users []services.RegisterInput `json:"users"`
}

type UpdateProfileRequest struct {
	services.ProfileInput
}

// Register handles POST /register
func (ac *AuthController) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "User registered",
		"role":        user.Role,
		"departments": user.Departments,
	})
}

// BulkRegister handles POST /bulk-register
func (ac *AuthController) BulkRegister(c *gin.Context) {
	var req BulkRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, failed := ac.users.BulkRegister(c.Request.Context(), req.Users)
	c.JSON(http.StatusCreated, gin.H{"created": created, "failed": failed})
}

// Login handles user authentication
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.users.Authenticate(c.Request.Context(), req.EmpID, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := generateToken(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		User:    *user,
		Message: "Login successful",
	})
}

// Me returns the authenticated user
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.users.GetByEmpID(c.Request.Context(), c.GetString(middleware.ContextEmpID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser handles GET /users?emp_id=
func (ac *AuthController) GetUser(c *gin.Context) {
	user, err := ac.users.GetByEmpID(c.Request.Context(), callerEmpID(c, c.Query("emp_id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /users/profile for the token holder
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.users.UpdateProfile(c.Request.Context(), c.GetString(middleware.ContextEmpID), req.ProfileInput)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully.",
		"user": gin.H{
			"emp_id": user.EmpID,
			"name":   user.Name,
			"email":  user.Email,
			"role":   user.Role,
			"is_hr":  user.IsHR,
		},
	})
}

// generateToken creates JWT token
func generateToken(user models.User) (string, error) {
	now := time.Now()
	claims := middleware.Claims{
		EmpID: user.EmpID,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(config.JWTExpireHours()) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret())
}
