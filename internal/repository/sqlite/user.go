package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/rahim/student-portal/internal/apperror"
	"github.com/rahim/student-portal/internal/model"
	"github.com/rahim/student-portal/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, first_name, last_name, email, password_hash, age,
	address, marks, profile_pic, role, created_at, updated_at`

// Create inserts a new record, assigning a fresh xid and timestamps.
//
// The policy layer checks email/address uniqueness before calling Create,
// but two concurrent signups can both pass that check; the UNIQUE
// constraints here are the backstop, and their violations are mapped to the
// same apperror.Uniqueness kind the up-front check produces.
func (db *DB) Create(ctx context.Context, rec *model.UserRecord) error {
	now := time.Now().UTC()
	rec.ID = xid.New().String()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	marks, err := json.Marshal(rec.Marks)
	if err != nil {
		return fmt.Errorf("sqlite: encoding marks: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.FirstName,
		rec.LastName,
		rec.Email,
		rec.PasswordHash,
		rec.Age,
		rec.Address,
		string(marks),
		rec.ProfilePic,
		string(rec.Role),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if uniqueErr := mapUniqueViolation(err); uniqueErr != nil {
			return uniqueErr
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", rec.Email, err)
	}

	return nil
}

// GetByID retrieves a record by id. Returns apperror.ErrNotFound if no
// record exists with that id.
func (db *DB) GetByID(ctx context.Context, id string) (*model.UserRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	rec, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("student", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return rec, nil
}

// GetByEmailAndRole retrieves the single record matching both fields. Email
// is globally unique, so at most one row can match.
func (db *DB) GetByEmailAndRole(ctx context.Context, email string, role model.Role) (*model.UserRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND role = ?`,
		email, string(role))

	rec, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email and role: %w", err)
	}
	return rec, nil
}

// EmailExists reports whether any record holds the email, regardless of role.
func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking email existence: %w", err)
	}
	return count > 0, nil
}

// AddressExists reports whether any record holds the address.
func (db *DB) AddressExists(ctx context.Context, address string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE address = ?`, address).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking address existence: %w", err)
	}
	return count > 0, nil
}

// ListByRole returns all records with the role in natural (insertion) order.
// No pagination — the caller gets the whole set.
func (db *DB) ListByRole(ctx context.Context, role model.Role) ([]model.UserRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ?`, string(role))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users by role %s: %w", role, err)
	}
	defer rows.Close()

	// Non-nil even when empty, so the API serializes [] rather than null.
	records := []model.UserRecord{}
	for rows.Next() {
		rec, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return records, nil
}

// Update writes the full record back and refreshes UpdatedAt. The caller is
// expected to have fetched the record first (fetch-then-update), so a
// missing row here means it was deleted concurrently.
func (db *DB) Update(ctx context.Context, rec *model.UserRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	marks, err := json.Marshal(rec.Marks)
	if err != nil {
		return fmt.Errorf("sqlite: encoding marks: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET first_name = ?, last_name = ?, email = ?, password_hash = ?,
		     age = ?, address = ?, marks = ?, profile_pic = ?, updated_at = ?
		 WHERE id = ?`,
		rec.FirstName,
		rec.LastName,
		rec.Email,
		rec.PasswordHash,
		rec.Age,
		rec.Address,
		string(marks),
		rec.ProfilePic,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		if uniqueErr := mapUniqueViolation(err); uniqueErr != nil {
			return uniqueErr
		}
		return fmt.Errorf("sqlite: updating user %s: %w", rec.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", rec.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("student", rec.ID)
	}

	return nil
}

// Delete removes the record permanently. Returns apperror.ErrNotFound if no
// row had the id.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("student", id)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.UserRecord, error) {
	var rec model.UserRecord
	var marks, role string

	err := s.Scan(
		&rec.ID,
		&rec.FirstName,
		&rec.LastName,
		&rec.Email,
		&rec.PasswordHash,
		&rec.Age,
		&rec.Address,
		&marks,
		&rec.ProfilePic,
		&role,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(marks), &rec.Marks); err != nil {
		return nil, fmt.Errorf("decoding marks for user %s: %w", rec.ID, err)
	}
	rec.Role = model.Role(role)

	return &rec, nil
}

// mapUniqueViolation translates a driver UNIQUE-constraint error into the
// apperror kind the policy reports, or nil if err is something else. The
// driver exposes the violated column in the error text
// ("UNIQUE constraint failed: users.email").
func mapUniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "users.email"):
		return apperror.Uniqueness("email")
	case strings.Contains(msg, "users.address"):
		return apperror.Uniqueness("address")
	default:
		return apperror.Uniqueness("record")
	}
}
