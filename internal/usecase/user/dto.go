package user

import domain "mongo-user-service/internal/domain/user"

// Listing defaults applied when the caller omits page or limit.
const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
	MaxLimit     int64 = 100
)

// CreateUserRequest represents the request payload for creating a new user.
// Age is a pointer so that a missing age is told apart from age 0.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Age      *int   `json:"age" validate:"required,gte=0"`
	IsActive *bool  `json:"is_active"` // defaults to true when nil
}

// UpdateUserRequest represents a partial update of an existing user.
// Only fields that are Set are validated and written.
type UpdateUserRequest struct {
	ID       string
	Name     domain.Optional[string]
	Email    domain.Optional[string]
	Age      domain.Optional[int]
	IsActive domain.Optional[bool]
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID string
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string
}

// ListUsersRequest represents the request payload for listing users.
// It supports filtering, pagination and name search.
type ListUsersRequest struct {
	Query    string `json:"q"`
	MinAge   *int   `json:"min_age" validate:"omitempty,gte=0"`
	MaxAge   *int   `json:"max_age" validate:"omitempty,gte=0"`
	IsActive *bool  `json:"is_active"`
	Page     int64  `json:"page" validate:"gte=1"`
	Limit    int64  `json:"limit" validate:"gte=1,lte=100"`
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users      []User
	Pagination *Pagination
}

// Pagination represents pagination information for list responses.
type Pagination struct {
	Total      int64
	Page       int64
	Limit      int64
	TotalPages int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID       string
	Name     string
	Email    string
	Age      int
	IsActive bool
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Age:      u.Age,
		IsActive: u.IsActive,
	}
}
