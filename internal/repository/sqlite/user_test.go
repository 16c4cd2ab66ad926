package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/rahim/student-portal/internal/apperror"
	"github.com/rahim/student-portal/internal/model"
)

// newTestDB creates an in-memory database with migrations applied. It's
// closed automatically when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a record and fails the test on error. Email and
// address are derived from the name so each call stays unique.
func createTestUser(t *testing.T, db *DB, name string, role model.Role) *model.UserRecord {
	t.Helper()
	rec := &model.UserRecord{
		FirstName:    name,
		LastName:     "Tester",
		Email:        name + "@example.com",
		PasswordHash: "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefak",
		Age:          25,
		Address:      name + " street",
		Role:         role,
	}
	if err := db.Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to create test user %s: %v", name, err)
	}
	return rec
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreate(t *testing.T) {
	db := newTestDB(t)

	rec := &model.UserRecord{
		FirstName:    "Ann",
		LastName:     "Lee",
		Email:        "ann@x.com",
		PasswordHash: "$2a$04$hash",
		Age:          20,
		Address:      "1 Main St",
		Role:         model.RoleStudent,
	}

	if err := db.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if rec.ID == "" {
		t.Error("Create() did not set rec.ID")
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ann", model.RoleStudent)

	dup := &model.UserRecord{
		FirstName:    "Other",
		LastName:     "Person",
		Email:        "ann@example.com", // collides
		PasswordHash: "$2a$04$hash",
		Age:          30,
		Address:      "somewhere else entirely",
		Role:         model.RoleTeacher, // uniqueness ignores role
	}

	err := db.Create(context.Background(), dup)
	if err == nil {
		t.Fatal("Create() should fail on duplicate email")
	}
	if !errors.Is(err, apperror.ErrUniqueness) {
		t.Errorf("error kind = %v, want ErrUniqueness", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "email" {
		t.Errorf("Field = %q, want email", appErr.Field)
	}
}

func TestCreate_DuplicateAddress(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ann", model.RoleStudent)

	dup := &model.UserRecord{
		FirstName:    "Other",
		LastName:     "Person",
		Email:        "other@example.com",
		PasswordHash: "$2a$04$hash",
		Age:          30,
		Address:      "ann street", // collides
		Role:         model.RoleStudent,
	}

	err := db.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrUniqueness) {
		t.Errorf("error = %v, want ErrUniqueness", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "address" {
		t.Errorf("Field = %q, want address", appErr.Field)
	}
}

// =========================================================================
// READ
// =========================================================================

func TestGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "ann", model.RoleStudent)

	got, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "ann@example.com" {
		t.Errorf("Email = %q, want ann@example.com", got.Email)
	}
	if got.Role != model.RoleStudent {
		t.Errorf("Role = %q, want student", got.Role)
	}
	if got.Marks.Len() != 0 {
		t.Errorf("Marks.Len() = %d, want 0 for a fresh record", got.Marks.Len())
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetByEmailAndRole(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ann", model.RoleStudent)

	got, err := db.GetByEmailAndRole(context.Background(), "ann@example.com", model.RoleStudent)
	if err != nil {
		t.Fatalf("GetByEmailAndRole() error = %v", err)
	}
	if got.FirstName != "ann" {
		t.Errorf("FirstName = %q, want ann", got.FirstName)
	}

	// Same email, wrong role: no match.
	_, err = db.GetByEmailAndRole(context.Background(), "ann@example.com", model.RoleTeacher)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("wrong-role lookup error = %v, want ErrNotFound", err)
	}
}

func TestEmailAndAddressExists(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ann", model.RoleStudent)

	exists, err := db.EmailExists(context.Background(), "ann@example.com")
	if err != nil || !exists {
		t.Errorf("EmailExists(known) = (%v, %v), want (true, nil)", exists, err)
	}
	exists, err = db.EmailExists(context.Background(), "nobody@example.com")
	if err != nil || exists {
		t.Errorf("EmailExists(unknown) = (%v, %v), want (false, nil)", exists, err)
	}

	exists, err = db.AddressExists(context.Background(), "ann street")
	if err != nil || !exists {
		t.Errorf("AddressExists(known) = (%v, %v), want (true, nil)", exists, err)
	}
	exists, err = db.AddressExists(context.Background(), "nowhere")
	if err != nil || exists {
		t.Errorf("AddressExists(unknown) = (%v, %v), want (false, nil)", exists, err)
	}
}

func TestListByRole(t *testing.T) {
	db := newTestDB(t)
	first := createTestUser(t, db, "ann", model.RoleStudent)
	createTestUser(t, db, "prof", model.RoleTeacher)
	second := createTestUser(t, db, "bob", model.RoleStudent)

	students, err := db.ListByRole(context.Background(), model.RoleStudent)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("len(students) = %d, want 2", len(students))
	}
	// Natural order is insertion order.
	if students[0].ID != first.ID || students[1].ID != second.ID {
		t.Errorf("ListByRole() order = [%s %s], want [%s %s]",
			students[0].ID, students[1].ID, first.ID, second.ID)
	}
}

func TestListByRole_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)

	students, err := db.ListByRole(context.Background(), model.RoleStudent)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if students == nil {
		t.Error("ListByRole() returned nil slice, want empty slice")
	}
	if len(students) != 0 {
		t.Errorf("len = %d, want 0", len(students))
	}
}

// =========================================================================
// UPDATE
// =========================================================================

func TestUpdate_PersistsMarks(t *testing.T) {
	db := newTestDB(t)
	rec := createTestUser(t, db, "ann", model.RoleStudent)

	var marks model.Marks
	marks.Set("math", model.NumberMark(95))
	marks.Set("conduct", model.TextMark("A"))
	rec.Marks = marks

	if err := db.Update(context.Background(), rec); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Marks.Equal(marks) {
		t.Errorf("stored marks = %v, want %v", got.Marks.Subjects(), marks.Subjects())
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("UpdatedAt should not precede CreatedAt")
	}
}

func TestUpdate_UniqueEmailCollision(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ann", model.RoleStudent)
	bob := createTestUser(t, db, "bob", model.RoleStudent)

	bob.Email = "ann@example.com"
	err := db.Update(context.Background(), bob)
	if !errors.Is(err, apperror.ErrUniqueness) {
		t.Errorf("error = %v, want ErrUniqueness", err)
	}
}

func TestUpdate_MissingRecord(t *testing.T) {
	db := newTestDB(t)
	rec := createTestUser(t, db, "ann", model.RoleStudent)

	if err := db.Delete(context.Background(), rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := db.Update(context.Background(), rec); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() after delete error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE
// =========================================================================

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	rec := createTestUser(t, db, "ann", model.RoleStudent)

	if err := db.Delete(context.Background(), rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.GetByID(context.Background(), rec.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	students, err := db.ListByRole(context.Background(), model.RoleStudent)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if len(students) != 0 {
		t.Errorf("deleted record still listed: %v", students)
	}
}

func TestDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	if err := db.Delete(context.Background(), "no-such-id"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
