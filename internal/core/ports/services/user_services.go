package services

import (
	"context"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
	"github.com/stablelend/micro_lending_app/internal/dto"
)

// UserSvcFacade defines user management and credential verification.
type UserSvcFacade interface {
	RegisterUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error)

	// Authenticate verifies username/password and returns the user, or
	// apperrors.ErrUnauthorized on mismatch.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}
