package ports

import (
	"context"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// UserDirectory defines the interface for user account lookup and password
// updates. Absence is reported with domain.ErrUserNotFound; any other error
// means the directory itself failed.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
