package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "mongo-user-service/internal/domain/user"
	"mongo-user-service/internal/usecase/user"
	pkgerrors "mongo-user-service/pkg/errors"
	"mongo-user-service/pkg/logger"
)

// Pagination headers set on GET /users.
const (
	HeaderTotalCount = "X-Total-Count"
	HeaderTotalPages = "X-Total-Pages"
	HeaderPage       = "X-Page"
	HeaderLimit      = "X-Limit"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      *int   `json:"age"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// UpdateUserRequest represents the HTTP request body for updating a user.
// Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Name     domain.Optional[string] `json:"name"`
	Email    domain.Optional[string] `json:"email"`
	Age      domain.Optional[int]    `json:"age"`
	IsActive domain.Optional[bool]   `json:"is_active"`
}

// ListUsersQuery holds the query parameters of GET /users
type ListUsersQuery struct {
	Q        string `form:"q"`
	MinAge   *int   `form:"min_age"`
	MaxAge   *int   `form:"max_age"`
	IsActive *bool  `form:"is_active"`
	Page     *int64 `form:"page"`
	Limit    *int64 `form:"limit"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      int    `json:"age"`
	IsActive bool   `json:"is_active"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details []pkgerrors.FieldError `json:"details,omitempty"`
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Age:      u.Age,
		IsActive: u.IsActive,
	}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithContext(ctx, h.log).Warn("invalid create user request", zap.Error(err))
		h.handleError(c, bindError(err))
		return
	}

	resp, err := h.uc.CreateUser(ctx, user.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(resp))
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: c.Param("id")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// a bad id wins over a bad body
	if !domain.ValidID(id) {
		h.handleError(c, pkgerrors.NewInvalidArgumentError("id", "invalid user id"))
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithContext(ctx, h.log).Warn("invalid update user request", zap.String("id", id), zap.Error(err))
		h.handleError(c, bindError(err))
		return
	}

	resp, err := h.uc.UpdateUser(ctx, user.UpdateUserRequest{
		ID:       id,
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: c.Param("id")}); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		logger.WithContext(ctx, h.log).Warn("invalid list users query", zap.Error(err))
		h.handleError(c, pkgerrors.NewValidationError("query", "invalid query parameters"))
		return
	}

	req := user.ListUsersRequest{
		Query:    q.Q,
		MinAge:   q.MinAge,
		MaxAge:   q.MaxAge,
		IsActive: q.IsActive,
		Page:     user.DefaultPage,
		Limit:    user.DefaultLimit,
	}
	if q.Page != nil {
		req.Page = *q.Page
	}
	if q.Limit != nil {
		req.Limit = *q.Limit
	}

	resp, err := h.uc.ListUsers(ctx, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i := range resp.Users {
		users[i] = toResponse(&resp.Users[i])
	}

	if p := resp.Pagination; p != nil {
		c.Header(HeaderTotalCount, strconv.FormatInt(p.Total, 10))
		c.Header(HeaderTotalPages, strconv.FormatInt(p.TotalPages, 10))
		c.Header(HeaderPage, strconv.FormatInt(p.Page, 10))
		c.Header(HeaderLimit, strconv.FormatInt(p.Limit, 10))
	}

	c.JSON(http.StatusOK, users)
}

// bindError turns a JSON decoding failure into a validation error.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return pkgerrors.NewValidationError(typeErr.Field, "must be of type "+typeErr.Type.String())
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return pkgerrors.NewValidationError("body", "malformed JSON body")
	}

	return pkgerrors.NewValidationError("body", err.Error())
}

// handleError converts usecase errors to HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	status := pkgerrors.HTTPStatus(err)
	log := logger.WithContext(c.Request.Context(), h.log).With(
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Error(err))
	}

	resp := ErrorResponse{
		Error:   pkgerrors.Kind(err),
		Message: pkgerrors.PublicMessage(err),
	}

	var ve *pkgerrors.ValidationError
	if errors.As(err, &ve) {
		resp.Details = ve.Fields
	}

	c.JSON(status, resp)
}
