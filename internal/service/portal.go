// Package service is the authorization and mutation policy of the portal —
// the layer that decides who may read or write which records, validates
// input, and shapes the mutations sent to the store.
//
// THE THREE-LAYER SHAPE:
//
//	Handler (HTTP)   → parses requests, writes responses
//	Service (policy) → authorizes, validates, orchestrates
//	Repository (DB)  → reads/writes records
//
// Handlers never touch the repository; this package never touches HTTP.
// Every failure leaves here as an apperror kind, which the handler maps to
// a status code.
//
// Access control lives in the table in authz.go, not in per-method
// conditionals. Post-commit notifications go through notify.Runner and can
// never fail a mutation that already committed.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rahim/student-portal/internal/apperror"
	"github.com/rahim/student-portal/internal/auth"
	"github.com/rahim/student-portal/internal/model"
	"github.com/rahim/student-portal/internal/notify"
	"github.com/rahim/student-portal/internal/repository"
	"github.com/rahim/student-portal/internal/validate"
)

// PortalService implements every portal operation.
//
// DEPENDENCIES (injected via NewPortalService):
//   - repo       repository.UserRepository → the record store
//   - tokens     *auth.TokenService        → session tokens
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - notifier   *notify.Runner            → post-commit mail, detached
//   - logger     *slog.Logger              → structured logging
type PortalService struct {
	repo      repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	notifier  *notify.Runner
	logger    *slog.Logger
}

// NewPortalService creates a PortalService with all required dependencies.
func NewPortalService(
	repo repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	notifier *notify.Runner,
	logger *slog.Logger,
) *PortalService {
	return &PortalService{
		repo:      repo,
		tokens:    tokens,
		passwords: passwords,
		notifier:  notifier,
		logger:    logger,
	}
}

// LoginResult is the payload returned by login, signup, and every mutation:
// a human-readable message, a freshly issued session token, and the record
// the operation acted on (nil after a delete).
type LoginResult struct {
	Message string
	Token   string
	Record  *model.UserRecord
}

// Login authenticates an email/password/role triple.
//
// The error for "no such account" and "wrong password" is the same
// InvalidCredentials — the response never reveals which half failed.
func (s *PortalService) Login(ctx context.Context, email, password, role string) (*LoginResult, error) {
	if email == "" || password == "" || role == "" {
		return nil, apperror.ValidationFailed("", "email, password, and role are required")
	}

	// An unknown role can't match any record; it falls through to the same
	// undifferentiated failure as a bad password.
	rec, err := s.repo.GetByEmailAndRole(ctx, email, model.Role(role))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service: looking up login for %s: %w", email, err)
	}

	if err := s.passwords.Verify(rec.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Issue(rec.ID, rec.Role)
	if err != nil {
		return nil, fmt.Errorf("service: issuing token for %s: %w", rec.ID, err)
	}

	s.logger.Info("login",
		slog.String("id", rec.ID),
		slog.String("role", string(rec.Role)),
	)

	return &LoginResult{Message: "Login successful", Token: token, Record: rec}, nil
}

// SignupInput carries the full field set required at signup.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Age       int
	Address   string
	Role      string
}

// Signup validates, checks uniqueness, creates the record, and logs the new
// user straight in.
//
// ORDERING: uniqueness checks run before the password is hashed — there is
// no point burning ~250ms of bcrypt on a signup that collides. Creation is
// followed by token issuance and a welcome mail; the mail is fire-and-forget
// and cannot undo the record.
func (s *PortalService) Signup(ctx context.Context, in SignupInput) (*LoginResult, error) {
	if err := validate.Signup(in.FirstName, in.LastName, in.Email, in.Password, in.Age, in.Address, in.Role); err != nil {
		return nil, err
	}

	// Email uniqueness is global, not per role — a teacher and a student
	// can't share an address either.
	if exists, err := s.repo.EmailExists(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("service: checking email uniqueness: %w", err)
	} else if exists {
		return nil, apperror.Uniqueness("email")
	}
	if exists, err := s.repo.AddressExists(ctx, in.Address); err != nil {
		return nil, fmt.Errorf("service: checking address uniqueness: %w", err)
	} else if exists {
		return nil, apperror.Uniqueness("address")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	rec := &model.UserRecord{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Age:          in.Age,
		Address:      in.Address,
		Marks:        model.NewMarks(),
		ProfilePic:   "",
		Role:         model.Role(in.Role),
	}

	// Two concurrent signups can both pass the checks above; the store's
	// unique constraints catch the loser and return the same Uniqueness kind.
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(rec.ID, rec.Role)
	if err != nil {
		return nil, fmt.Errorf("service: issuing token for %s: %w", rec.ID, err)
	}

	s.logger.Info("signup",
		slog.String("id", rec.ID),
		slog.String("role", string(rec.Role)),
	)

	s.notifier.Dispatch(rec.Email, "Registration Successful", "Welcome to the system!")

	return &LoginResult{Message: "Signup successful", Token: token, Record: rec}, nil
}

// GetStudent returns a single student record to a teacher caller.
//
// The table row for this operation requires target=student AND
// caller=teacher, so a student caller is denied even for their own record.
// That asymmetry is preserved behavior, not an oversight to fix here.
func (s *PortalService) GetStudent(ctx context.Context, caller *auth.Identity, id string) (*model.UserRecord, error) {
	if err := checkCaller(OpGetStudent, caller); err != nil {
		return nil, err
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := checkTarget(OpGetStudent, caller, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// GetAllStudents returns every student record, unpaginated, in the store's
// natural order. Teachers only.
func (s *PortalService) GetAllStudents(ctx context.Context, caller *auth.Identity) ([]model.UserRecord, error) {
	if err := checkCaller(OpGetAllStudents, caller); err != nil {
		return nil, err
	}

	students, err := s.repo.ListByRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("service: listing students: %w", err)
	}
	return students, nil
}

// UpdateMarks replaces a student's marks wholesale.
//
// marksJSON is the raw argument as received; anything that doesn't decode
// to a JSON object of scalar values is a validation failure. There is no
// merge — subjects absent from the new mapping are gone.
//
// Any authenticated identity may call this, students included. The table
// row encodes that permissiveness explicitly; see authz.go.
func (s *PortalService) UpdateMarks(ctx context.Context, caller *auth.Identity, id string, marksJSON json.RawMessage) (*LoginResult, error) {
	if err := checkCaller(OpUpdateMarks, caller); err != nil {
		return nil, err
	}

	marks, err := decodeMarks(marksJSON)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(OpUpdateMarks, caller, rec); err != nil {
		return nil, err
	}

	rec.Marks = marks
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("service: updating marks for %s: %w", id, err)
	}

	// The fresh token is bound to the updated record's identity, not the
	// caller's — preserved response shape.
	token, err := s.tokens.Issue(rec.ID, rec.Role)
	if err != nil {
		return nil, fmt.Errorf("service: issuing token for %s: %w", rec.ID, err)
	}

	s.logger.Info("marks updated",
		slog.String("id", rec.ID),
		slog.Int("subjects", rec.Marks.Len()),
		slog.String("by", caller.ID),
	)

	return &LoginResult{Message: "Marks updated successfully", Token: token, Record: rec}, nil
}

// UpdateStudentInput is the partial field set for UpdateStudent. A nil
// pointer means "leave untouched"; a set pointer goes through the same
// validator the field had at signup. Role and password are absent by
// design: role is immutable, and there is no password-change path in
// scope.
type UpdateStudentInput struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Age        *int
	Address    *string
	ProfilePic *string
	Marks      json.RawMessage // nil = untouched; otherwise whole replace
}

// UpdateStudent applies a partial update to a student record. Teachers only
// (against a student target).
//
// After the write commits, every teacher on file is notified. The mail body
// uses the record as it was fetched, before the update was applied — so a
// rename announces the old name. Preserved behavior.
func (s *PortalService) UpdateStudent(ctx context.Context, caller *auth.Identity, id string, in UpdateStudentInput) (*LoginResult, error) {
	if err := checkCaller(OpUpdateStudent, caller); err != nil {
		return nil, err
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(OpUpdateStudent, caller, rec); err != nil {
		return nil, err
	}

	// Snapshot before mutating: the notification fan-out below reports the
	// pre-update name and email.
	prevFirst, prevLast, prevEmail := rec.FirstName, rec.LastName, rec.Email

	if in.FirstName != nil {
		if err := validate.FirstName(*in.FirstName); err != nil {
			return nil, err
		}
		rec.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		if err := validate.LastName(*in.LastName); err != nil {
			return nil, err
		}
		rec.LastName = *in.LastName
	}
	if in.Email != nil {
		if err := validate.Email(*in.Email); err != nil {
			return nil, err
		}
		rec.Email = *in.Email
	}
	if in.Age != nil {
		if err := validate.Age(*in.Age); err != nil {
			return nil, err
		}
		rec.Age = *in.Age
	}
	if in.Address != nil {
		if err := validate.Address(*in.Address); err != nil {
			return nil, err
		}
		rec.Address = *in.Address
	}
	if in.ProfilePic != nil {
		rec.ProfilePic = *in.ProfilePic
	}
	if in.Marks != nil {
		marks, err := decodeMarks(in.Marks)
		if err != nil {
			return nil, err
		}
		rec.Marks = marks
	}

	// May return Uniqueness if the new email or address collides.
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.notifyTeachers(ctx, prevFirst, prevLast, prevEmail)

	token, err := s.tokens.Issue(rec.ID, rec.Role)
	if err != nil {
		return nil, fmt.Errorf("service: issuing token for %s: %w", rec.ID, err)
	}

	s.logger.Info("student updated",
		slog.String("id", rec.ID),
		slog.String("by", caller.ID),
	)

	return &LoginResult{Message: "Student updated successfully", Token: token, Record: rec}, nil
}

// DeleteStudent removes a record permanently. Teachers only.
//
// The target's role is NOT checked — a teacher can delete any record by id,
// another teacher's included. Preserved behavior. The returned token is
// bound to the caller, since the deleted record no longer has an identity
// to bind to.
func (s *PortalService) DeleteStudent(ctx context.Context, caller *auth.Identity, id string) (*LoginResult, error) {
	if err := checkCaller(OpDeleteStudent, caller); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(caller.ID, caller.Role)
	if err != nil {
		return nil, fmt.Errorf("service: issuing token for %s: %w", caller.ID, err)
	}

	s.logger.Info("student deleted",
		slog.String("id", id),
		slog.String("by", caller.ID),
	)

	return &LoginResult{Message: "Student deleted successfully", Token: token, Record: nil}, nil
}

// notifyTeachers fans the update announcement out to every teacher record.
// This runs after the update has committed: a failure to even list the
// teachers is logged and swallowed, never surfaced — the mutation already
// happened and reporting an error now would misreport it.
func (s *PortalService) notifyTeachers(ctx context.Context, firstName, lastName, email string) {
	teachers, err := s.repo.ListByRole(ctx, model.RoleTeacher)
	if err != nil {
		s.logger.Warn("listing teachers for update notification failed",
			slog.String("error", err.Error()),
		)
		return
	}

	body := fmt.Sprintf(
		"Student %s %s has updated their profile and marks. Email: %s",
		firstName, lastName, email,
	)
	for _, teacher := range teachers {
		s.notifier.Dispatch(teacher.Email, "Student Profile Updated", body)
	}
}

// decodeMarks turns the raw marks argument into a Marks mapping, mapping
// every decode failure onto the same validation kind.
func decodeMarks(raw json.RawMessage) (model.Marks, error) {
	if len(raw) == 0 {
		return model.Marks{}, apperror.ValidationFailed("marks", "marks must be a JSON object")
	}
	var marks model.Marks
	if err := json.Unmarshal(raw, &marks); err != nil {
		return model.Marks{}, apperror.ValidationFailed("marks", "marks must be a JSON object of numbers or strings")
	}
	return marks, nil
}
