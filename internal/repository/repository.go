package repository

import (
	"context"

	"github.com/rahim/student-portal/internal/model"
)

// UserRepository is the record store the policy layer writes through: a
// keyed collection of user records with uniqueness enforced on email and
// address. Implementations return apperror kinds (ErrNotFound,
// ErrUniqueness) so the service layer never inspects driver errors.
type UserRepository interface {
	// Create inserts a new record, assigning ID, CreatedAt, and UpdatedAt.
	Create(ctx context.Context, rec *model.UserRecord) error

	// GetByID returns the record with the given id.
	GetByID(ctx context.Context, id string) (*model.UserRecord, error)

	// GetByEmailAndRole returns the single record matching both, used by
	// login. Missing is ErrNotFound; the caller decides how much to reveal.
	GetByEmailAndRole(ctx context.Context, email string, role model.Role) (*model.UserRecord, error)

	// EmailExists reports whether any record, of either role, holds the email.
	EmailExists(ctx context.Context, email string) (bool, error)

	// AddressExists reports whether any record holds the address.
	AddressExists(ctx context.Context, address string) (bool, error)

	// ListByRole returns all records with the role, in the store's natural
	// order, unpaginated.
	ListByRole(ctx context.Context, role model.Role) ([]model.UserRecord, error)

	// Update writes the full record back, refreshing UpdatedAt.
	Update(ctx context.Context, rec *model.UserRecord) error

	// Delete removes the record permanently. No tombstone.
	Delete(ctx context.Context, id string) error
}
