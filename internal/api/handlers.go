package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"messenger/internal/auth"
	apperrors "messenger/internal/errors"
	"messenger/internal/media"
	"messenger/internal/models"
	"messenger/internal/sentry"

	"github.com/gin-gonic/gin"
)

// userResponse is the public view of an account.
type userResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Messenger Backend!"})
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		sentry.CaptureErrorWithContext(c, err, "register: hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     req.FullName,
		IsActive:     true,
	}
	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
			return
		}
		sentry.CaptureErrorWithContext(c, err, "register: create user")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// handleLogin accepts the same form fields as an OAuth2 password grant
// (username holds the email) and returns a bearer token.
func (s *Server) handleLogin(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.PostForm("username")))
	password := c.PostForm("password")

	user, err := s.store.GetUserByEmail(email)
	if err != nil || !auth.CheckPassword(password, user.PasswordHash) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect email or password"})
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		sentry.CaptureErrorWithContext(c, err, "login: issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleMe(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers()
	if err != nil {
		sentry.CaptureErrorWithContext(c, err, "list users")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid user id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) handleToggleActive(c *gin.Context) {
	id, ok := s.userIDParam(c)
	if !ok {
		return
	}

	user, err := s.store.GetUserByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}

	updated, err := s.store.SetUserActive(id, !user.IsActive)
	if err != nil {
		sentry.CaptureErrorWithContext(c, err, "toggle active")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail": fmt.Sprintf("User %s active status changed to %t", updated.Email, updated.IsActive),
	})
}

func (s *Server) handleSetActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.userIDParam(c)
		if !ok {
			return
		}

		updated, err := s.store.SetUserActive(id, active)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
				return
			}
			sentry.CaptureErrorWithContext(c, err, "set active")
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
			return
		}

		verb := "deactivated"
		if active {
			verb = "activated"
		}
		c.JSON(http.StatusOK, gin.H{"detail": fmt.Sprintf("User %s %s", updated.Email, verb)})
	}
}

func (s *Server) handleMediaUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file is required"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Only image uploads are allowed"})
		return
	}

	src, err := file.Open()
	if err != nil {
		sentry.CaptureErrorWithContext(c, err, "media upload: open part")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		sentry.CaptureErrorWithContext(c, err, "media upload: read part")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}

	name, err := s.media.Save(file.Filename, data)
	if err != nil {
		sentry.CaptureErrorWithContext(c, err, "media upload: save")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Encryption error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":     name,
		"url":          "/media/" + name,
		"content_type": contentType,
	})
}

func (s *Server) handleMediaGet(c *gin.Context) {
	data, err := s.media.Open(c.Param("filename"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
			return
		}
		sentry.CaptureErrorWithContext(c, err, "media get")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Decryption error"})
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", data)
}
