package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/userdb/userdb/internal/users"
)

// UserHandlers provides HTTP handlers for the users collection
type UserHandlers struct {
	userService users.UserService
	logger      *zap.Logger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(userService users.UserService, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the user CRUD routes
func (h *UserHandlers) RegisterRoutes(router gin.IRoutes) {
	router.POST("/users", h.CreateUser)
	router.GET("/users", h.ListUsers)
	router.GET("/users/:id", h.GetUser)
	router.PATCH("/users/:id", h.UpdateUser)
	router.DELETE("/users/:id", h.DeleteUser)
}

// CreateUser persists the request body as a new user. Every failure is
// reported as 400.
func (h *UserHandlers) CreateUser(c *gin.Context) {
	doc, err := bindDocument(c)
	if err != nil {
		h.fail(c, "create", http.StatusBadRequest, users.NewUserValidationError("", err))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), doc)
	if err != nil {
		h.fail(c, "create", http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandlers) ListUsers(c *gin.Context) {
	userList, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, "list", http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, userList)
}

func (h *UserHandlers) GetUser(c *gin.Context) {
	userID := c.Param("id")

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if users.IsNotFound(err) {
			c.Status(http.StatusNotFound)
			return
		}
		h.fail(c, "get", http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser applies a partial update. A missing user is a 404 with an empty
// body; any other failure is a 400.
func (h *UserHandlers) UpdateUser(c *gin.Context) {
	userID := c.Param("id")

	patch, err := bindDocument(c)
	if err != nil {
		h.fail(c, "update", http.StatusBadRequest, users.NewUserValidationError(userID, err))
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, patch)
	if err != nil {
		if users.IsNotFound(err) {
			c.Status(http.StatusNotFound)
			return
		}
		h.fail(c, "update", http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) DeleteUser(c *gin.Context) {
	userID := c.Param("id")

	user, err := h.userService.DeleteUser(c.Request.Context(), userID)
	if err != nil {
		if users.IsNotFound(err) {
			c.Status(http.StatusNotFound)
			return
		}
		h.fail(c, "delete", http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// bindDocument decodes the request body as a JSON object. An empty body is an
// empty document; a literal null is rejected.
func bindDocument(c *gin.Context) (users.Document, error) {
	var doc users.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return users.Document{}, nil
		}
		return nil, err
	}
	if doc == nil {
		return nil, users.NewValidationError("body", nil, "request body must be a JSON object")
	}
	return doc, nil
}

func (h *UserHandlers) fail(c *gin.Context, operation string, status int, err error) {
	h.logger.Error("User operation failed",
		zap.String("operation", operation),
		zap.String("user_id", c.Param("id")),
		zap.String("request_id", RequestID(c)),
		zap.Int("status", status),
		zap.Error(err))

	c.JSON(status, errorPayload(err))
}

// errorPayload serializes err for the client. Clients tell failures apart by
// the type field.
func errorPayload(err error) gin.H {
	payload := gin.H{
		"error": err.Error(),
		"type":  users.ErrorType(err),
	}

	var validationErr *users.ValidationError
	if errors.As(err, &validationErr) {
		payload["field"] = validationErr.Field
	}

	return payload
}
