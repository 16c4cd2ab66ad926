// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the account type fixed at signup. It drives every authorization
// decision in the service layer and never changes after creation.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// UserRecord is the single entity the portal stores: one row per account,
// student or teacher. Email and Address are unique across the whole table.
//
// WHY IS PasswordHash SERIALIZED?
// Login and signup responses historically include the full record, hash and
// all. That over-exposure is part of the contract this service preserves —
// see DESIGN.md. Changing the tag to `json:"-"` is the one-line fix if the
// contract is ever allowed to change.
//
// Marks only carries meaning for student records; teacher records keep an
// empty mapping and nothing ever writes to it.
type UserRecord struct {
	ID           string    `json:"id"           db:"id"`
	FirstName    string    `json:"firstName"    db:"first_name"`
	LastName     string    `json:"lastName"     db:"last_name"`
	Email        string    `json:"email"        db:"email"`
	PasswordHash string    `json:"passwordHash" db:"password_hash"`
	Age          int       `json:"age"          db:"age"`
	Address      string    `json:"address"      db:"address"`
	Marks        Marks     `json:"marks"        db:"marks"`
	ProfilePic   string    `json:"profilePic"   db:"profile_pic"`
	Role         Role      `json:"role"         db:"role"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}
