// Package validate holds the field-level validation rules for user records.
//
// The same validators run at signup (all fields) and at partial update (only
// the fields supplied), so a field can never enter the store through one
// path with a value the other path would reject.
//
// Rules are expressed as go-playground/validator tags evaluated per field
// with Var, rather than as struct tags — partial updates validate individual
// values, not whole structs, and the error each rule maps to (a field-tagged
// apperror.ValidationFailed) is the same either way.
package validate

import (
	"github.com/go-playground/validator/v10"

	"github.com/rahim/student-portal/internal/apperror"
)

// v is shared and concurrency-safe; validator caches parsed tags internally.
var v = validator.New()

// FirstName requires a non-empty, letters-only value.
func FirstName(value string) error {
	if err := v.Var(value, "required,alpha"); err != nil {
		return apperror.ValidationFailed("firstName", "first name is required and must contain only letters")
	}
	return nil
}

// LastName requires a non-empty, letters-only value.
func LastName(value string) error {
	if err := v.Var(value, "required,alpha"); err != nil {
		return apperror.ValidationFailed("lastName", "last name is required and must contain only letters")
	}
	return nil
}

// Email requires a local@domain.tld shape.
func Email(value string) error {
	if err := v.Var(value, "required,email"); err != nil {
		return apperror.ValidationFailed("email", "a valid email address is required")
	}
	return nil
}

// Password requires a non-empty value. Strength rules are out of scope; the
// 72-byte bcrypt ceiling is enforced where the hash is computed.
func Password(value string) error {
	if err := v.Var(value, "required"); err != nil {
		return apperror.ValidationFailed("password", "password is required")
	}
	return nil
}

// Age requires a value greater than 18, i.e. at least 19.
func Age(value int) error {
	if err := v.Var(value, "required,gt=18"); err != nil {
		return apperror.ValidationFailed("age", "age must be greater than 18")
	}
	return nil
}

// Address requires a non-empty value. Uniqueness is a store concern, checked
// separately.
func Address(value string) error {
	if err := v.Var(value, "required"); err != nil {
		return apperror.ValidationFailed("address", "address is required")
	}
	return nil
}

// Role requires one of the two known roles.
func Role(value string) error {
	if err := v.Var(value, "required,oneof=student teacher"); err != nil {
		return apperror.ValidationFailed("role", "role must be student or teacher")
	}
	return nil
}

// Signup runs every field validator, returning the first failure in field
// order. Role is validated through the same rule the model.Role type
// encodes, so a record can't be created with a role the rest of the policy
// doesn't recognise.
func Signup(firstName, lastName, email, password string, age int, address, role string) error {
	if err := FirstName(firstName); err != nil {
		return err
	}
	if err := LastName(lastName); err != nil {
		return err
	}
	if err := Email(email); err != nil {
		return err
	}
	if err := Password(password); err != nil {
		return err
	}
	if err := Age(age); err != nil {
		return err
	}
	if err := Address(address); err != nil {
		return err
	}
	return Role(role)
}
