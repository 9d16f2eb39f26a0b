package roles

import (
	"context"
	"fmt"

	"github.com/lensfolio/lensfolio/internal/rbac"
	"github.com/lensfolio/lensfolio/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context) ([]Role, error)
	FindByName(ctx context.Context, name string) (Role, error)
	GetByID(ctx context.Context, id int64) (Role, error)
	UpsertRole(ctx context.Context, name string) (int64, error)
	UpsertPermission(ctx context.Context, name string) (int64, error)
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
}

// seedEntry pins a bootstrap role to its permission set.
type seedEntry struct {
	name        string
	permissions []string
}

// seedTable is the entire policy surface of the application. Init re-applies
// it, so editing this table and redeploying is how the fixed roles change.
var seedTable = []seedEntry{
	{rbac.RoleLocked, nil},
	{rbac.RoleUser, []string{rbac.PermFollow, rbac.PermCollect, rbac.PermComment, rbac.PermUpload}},
	{rbac.RoleModerator, []string{rbac.PermFollow, rbac.PermCollect, rbac.PermComment, rbac.PermUpload, rbac.PermModerate}},
	{rbac.RoleAdministrator, rbac.AllNames()},
}

// Service handles role store business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Init seeds the fixed role table. It is idempotent: re-running updates each
// role's permission set to match the table instead of erroring on existing
// rows, and it is safe under concurrent startup thanks to upserts. It must
// run before the first user is created.
func (s *Service) Init(ctx context.Context) error {
	for _, entry := range seedTable {
		roleID, err := s.repo.UpsertRole(ctx, entry.name)
		if err != nil {
			return fmt.Errorf("roles: upsert role %s: %w", entry.name, err)
		}
		permIDs := make([]int64, 0, len(entry.permissions))
		for _, perm := range entry.permissions {
			id, err := s.repo.UpsertPermission(ctx, perm)
			if err != nil {
				return fmt.Errorf("roles: upsert permission %s: %w", perm, err)
			}
			permIDs = append(permIDs, id)
		}
		if err := s.repo.ReplacePermissions(ctx, roleID, permIDs); err != nil {
			return fmt.Errorf("roles: set permissions for %s: %w", entry.name, err)
		}
	}
	return nil
}

// List returns all roles ordered by name.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// FindByName fetches a role by name.
func (s *Service) FindByName(ctx context.Context, name string) (Role, error) {
	return s.repo.FindByName(ctx, name)
}

// GetByID fetches a role by id.
func (s *Service) GetByID(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetByID(ctx, id)
}

// SetPermissions replaces the role's permission set with the named
// permissions. Names outside the fixed catalogue are rejected.
func (s *Service) SetPermissions(ctx context.Context, roleID int64, names []string) error {
	if _, err := s.repo.GetByID(ctx, roleID); err != nil {
		return err
	}
	permIDs := make([]int64, 0, len(names))
	for _, name := range names {
		if !rbac.Has(name) {
			return fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, name)
		}
		id, err := s.repo.UpsertPermission(ctx, name)
		if err != nil {
			return err
		}
		permIDs = append(permIDs, id)
	}
	return s.repo.ReplacePermissions(ctx, roleID, permIDs)
}
