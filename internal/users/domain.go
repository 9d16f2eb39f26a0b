// Package users holds the principal model and its account state machine.
//
// A user has two independent suspension axes. Blocking flips the active flag
// and leaves the role alone. Locking forcibly reassigns the user to the
// Locked role; unlocking resets the role to the default User role rather
// than restoring whatever the user held before. The pre-lock role is not
// recorded anywhere, so locking discards role history on purpose.
package users

import "time"

// User represents a registered account.
type User struct {
	ID          int64
	Username    string
	Email       string
	Name        string
	Bio         string
	Website     string
	Location    string
	RoleID      int64
	RoleName    string
	Active      bool
	Locked      bool
	Confirmed   bool
	MemberSince time.Time
	UpdatedAt   time.Time
}

// NewUser carries the fields needed to register an account.
type NewUser struct {
	Username     string
	Email        string
	Name         string
	PasswordHash string
}

// AdminProfileUpdate carries the fields an administrator may edit on any
// account. A zero RoleID leaves the role alone; otherwise the service
// resolves the role and sets Locked when it is the Locked role, so the
// repository can commit the whole edit in one statement.
type AdminProfileUpdate struct {
	Username  string
	Email     string
	Name      string
	Bio       string
	Website   string
	Location  string
	Confirmed bool
	Active    bool
	RoleID    int64
	Locked    bool
}
