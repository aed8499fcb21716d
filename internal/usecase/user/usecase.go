package user

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "mongo-user-service/internal/domain/user"
	pkgerrors "mongo-user-service/pkg/errors"
	"mongo-user-service/pkg/logger"
	"mongo-user-service/pkg/security"
)

// Repository defines the interface for user data access operations.
// Implementations report domain.ErrNotFound, domain.ErrEmailTaken and
// domain.ErrInvalidID; anything else is treated as an infrastructure failure.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (string, error)                                     // Create a new user, returns its id
	GetByID(ctx context.Context, id string) (*domain.User, error)                                   // Retrieve user by ID
	Update(ctx context.Context, id string, patch domain.Patch) error                                // Apply a partial update
	Delete(ctx context.Context, id string) error                                                    // Delete user by ID
	List(ctx context.Context, f domain.ListFilter, page, limit int64) ([]domain.User, int64, error) // Filtered page plus total match count
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// updateFields mirrors the settable fields of UpdateUserRequest for validation.
type updateFields struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=50"`
	Email *string `json:"email" validate:"omitempty,email"`
	Age   *int    `json:"age" validate:"omitempty,gte=0"`
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Usecase{repo: r, log: log, validate: v}
}

// formatValidationError converts validator.ValidationErrors into a structured validation error.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make([]pkgerrors.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		var msg string
		switch e.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = "must be a valid email"
		case "min":
			msg = fmt.Sprintf("must be at least %s characters", e.Param())
		case "max":
			msg = fmt.Sprintf("must be at most %s characters", e.Param())
		case "gte":
			msg = fmt.Sprintf("must be greater than or equal to %s", e.Param())
		case "lte":
			msg = fmt.Sprintf("must be less than or equal to %s", e.Param())
		default:
			msg = "is invalid"
		}
		fields = append(fields, pkgerrors.FieldError{Field: e.Field(), Message: msg})
	}
	return &pkgerrors.ValidationError{Fields: fields}
}

// mapRepoError converts repository errors into typed application errors.
func mapRepoError(err error, op string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return pkgerrors.NewNotFoundError("user", "user not found")
	case errors.Is(err, domain.ErrEmailTaken):
		return pkgerrors.NewAlreadyExistsError("user", "email already registered")
	case errors.Is(err, domain.ErrInvalidID):
		return invalidIDError()
	default:
		return pkgerrors.NewInternalError("failed to "+op, err)
	}
}

func invalidIDError() error {
	return pkgerrors.NewInvalidArgumentError("id", "invalid user id")
}

// CreateUser validates the request, inserts the user and returns the stored record.
// Email uniqueness is left to the store's unique index.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		Name:     in.Name,
		Email:    in.Email,
		Age:      *in.Age,
		IsActive: isActive,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			log.Warn("email already exists", zap.String("email", in.Email))
		} else {
			log.Error("failed to create user", zap.Error(err))
		}
		return nil, mapRepoError(err, "create user")
	}

	created, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to read back created user", zap.String("id", id), zap.Error(err))
		return nil, mapRepoError(err, "get user")
	}

	return toDTO(created), nil
}

// UpdateUser applies the supplied fields to an existing user and returns the
// updated record. An update without fields behaves as GetUser.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	if !domain.ValidID(in.ID) {
		log.Warn("update user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, invalidIDError()
	}

	if err := uc.validate.Struct(updateFields{
		Name:  in.Name.Ptr(),
		Email: in.Email.Ptr(),
		Age:   in.Age.Ptr(),
	}); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	patch := domain.Patch{
		Name:     in.Name,
		Email:    in.Email,
		Age:      in.Age,
		IsActive: in.IsActive,
	}

	if patch.IsEmpty() {
		log.Info("empty update, returning current state", zap.String("id", in.ID))
		return uc.GetUser(ctx, GetUserRequest{ID: in.ID})
	}

	log.Info("updating user", zap.String("id", in.ID),
		zap.Bool("name", patch.Name.Set),
		zap.Bool("email", patch.Email.Set),
		zap.Bool("age", patch.Age.Set),
		zap.Bool("is_active", patch.IsActive.Set),
	)

	if err := uc.repo.Update(ctx, in.ID, patch); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			log.Warn("email already exists", zap.String("id", in.ID), zap.String("email", in.Email.Value))
		case errors.Is(err, domain.ErrNotFound):
			log.Warn("user not found", zap.String("id", in.ID))
		default:
			log.Error("failed to update user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, mapRepoError(err, "update user")
	}

	updated, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		log.Error("failed to read back updated user", zap.String("id", in.ID), zap.Error(err))
		return nil, mapRepoError(err, "get user")
	}

	return toDTO(updated), nil
}

// DeleteUser deletes a user after validating the user ID.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.String("id", in.ID))

	if !domain.ValidID(in.ID) {
		log.Warn("delete user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, invalidIDError()
	}

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("user not found", zap.String("id", in.ID))
		} else {
			log.Error("failed to delete user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, mapRepoError(err, "delete user")
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}

// GetUser retrieves a user by ID after validating the request.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	if !domain.ValidID(in.ID) {
		log.Warn("get user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, invalidIDError()
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug("user not found", zap.String("id", in.ID))
		} else {
			log.Error("failed to get user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, mapRepoError(err, "get user")
	}

	return toDTO(u), nil
}

// ListUsers retrieves one page of users matching the filters, sorted by name,
// together with the total number of matches.
func (uc *Usecase) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("list users validation failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	query, err := security.ValidateSearchQuery(in.Query)
	if err != nil {
		log.Warn("invalid search query", zap.String("query", in.Query), zap.Error(err))
		return nil, pkgerrors.NewValidationError("q", err.Error())
	}

	log.Info("listing users", zap.String("query", query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit))

	filter := domain.ListFilter{
		NamePattern: query,
		MinAge:      in.MinAge,
		MaxAge:      in.MaxAge,
		IsActive:    in.IsActive,
	}

	domainUsers, total, err := uc.repo.List(ctx, filter, in.Page, in.Limit)
	if err != nil {
		log.Error("failed to list users", zap.String("query", query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit), zap.Error(err))
		return nil, mapRepoError(err, "list users")
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}

	p := domain.NewPagination(total, in.Page, in.Limit)
	return &ListUsersResponse{
		Users: users,
		Pagination: &Pagination{
			Total:      p.Total,
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: p.TotalPages,
		},
	}, nil
}
