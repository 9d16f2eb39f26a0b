package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/secure/precis"

	"github.com/lensfolio/lensfolio/internal/rbac"
	"github.com/lensfolio/lensfolio/internal/roles"
	"github.com/lensfolio/lensfolio/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, nu NewUser) (User, error)
	Block(ctx context.Context, id int64) error
	Unblock(ctx context.Context, id int64) error
	Lock(ctx context.Context, id int64) error
	Unlock(ctx context.Context, id int64) error
	SetRole(ctx context.Context, id, roleID int64, locked bool) error
	UpdateProfile(ctx context.Context, id int64, up AdminProfileUpdate) error
	PrincipalByID(ctx context.Context, id int64) (*rbac.Principal, error)
}

// RolePort is the slice of the role store the user service needs.
type RolePort interface {
	GetByID(ctx context.Context, id int64) (roles.Role, error)
}

// RegisterInput carries self-service registration fields.
type RegisterInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

// Service handles user account business logic.
type Service struct {
	repo  RepositoryPort
	roles RolePort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roleStore RolePort) *Service {
	return &Service{repo: repo, roles: roleStore}
}

// Register creates an account with the default User role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	username, err := NormalizeUsername(in.Username)
	if err != nil {
		return User{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return User{}, fmt.Errorf("%w: email required", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, NewUser{
		Username:     username,
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
	})
}

// GetByID fetches a user.
func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Block deactivates the account; the user can no longer authenticate or act.
func (s *Service) Block(ctx context.Context, id int64) error {
	return s.repo.Block(ctx, id)
}

// Unblock reactivates the account, restoring whatever its role allowed.
func (s *Service) Unblock(ctx context.Context, id int64) error {
	return s.repo.Unblock(ctx, id)
}

// Lock quarantines the account under the Locked role.
func (s *Service) Lock(ctx context.Context, id int64) error {
	return s.repo.Lock(ctx, id)
}

// Unlock releases the account back to the default User role. The role held
// before locking is gone; this is a hard privilege reset, not suspend/resume.
func (s *Service) Unlock(ctx context.Context, id int64) error {
	return s.repo.Unlock(ctx, id)
}

// AssignRole reassigns the user's role. Assigning the Locked role is the
// lock operation; assigning any other role to a locked user releases the
// lock along with the reassignment, in one atomic update.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role.Name == rbac.RoleLocked {
		return s.repo.Lock(ctx, userID)
	}
	return s.repo.SetRole(ctx, userID, roleID, false)
}

// UpdateProfileAdmin applies an administrator edit. The target role is
// resolved before anything is written, and the repository applies the profile
// fields and the role change in one statement, so a failing edit never
// commits half of itself.
func (s *Service) UpdateProfileAdmin(ctx context.Context, userID int64, up AdminProfileUpdate) (User, error) {
	username, err := NormalizeUsername(up.Username)
	if err != nil {
		return User{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	up.Username = username
	up.Email = strings.ToLower(strings.TrimSpace(up.Email))

	if up.RoleID != 0 {
		role, err := s.roles.GetByID(ctx, up.RoleID)
		if err != nil {
			return User{}, err
		}
		up.Locked = role.Name == rbac.RoleLocked
	}

	if err := s.repo.UpdateProfile(ctx, userID, up); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, userID)
}

// PrincipalByID resolves the access-control view of the user. It satisfies
// rbac.PrincipalSource.
func (s *Service) PrincipalByID(ctx context.Context, id int64) (*rbac.Principal, error) {
	return s.repo.PrincipalByID(ctx, id)
}

// NormalizeUsername canonicalizes a username with the PRECIS UsernameCaseMapped
// profile, so lookalike and mixed-case handles collapse to one identity.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("username required")
	}
	normalized, err := precis.UsernameCaseMapped.String(username)
	if err != nil {
		return "", fmt.Errorf("invalid username: %v", err)
	}
	return normalized, nil
}
