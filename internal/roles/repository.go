package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lensfolio/lensfolio/internal/platform/db"
	"github.com/lensfolio/lensfolio/internal/shared"
)

const roleColumns = `r.id, r.name, r.created_at, r.updated_at,
	COALESCE(array_agg(p.name ORDER BY p.id) FILTER (WHERE p.name IS NOT NULL), '{}')`

const roleJoin = `FROM roles r
	LEFT JOIN role_permissions rp ON rp.role_id = r.id
	LEFT JOIN permissions p ON p.id = rp.permission_id`

// Repository provides PostgreSQL backed persistence for roles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all roles with their permission sets, ordered by name.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` `+roleJoin+` GROUP BY r.id ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// FindByName fetches a role by its unique name.
func (r *Repository) FindByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` `+roleJoin+` WHERE r.name = $1 GROUP BY r.id`, name)
	return scanRoleRow(row)
}

// GetByID fetches a role by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` `+roleJoin+` WHERE r.id = $1 GROUP BY r.id`, id)
	return scanRoleRow(row)
}

// UpsertRole inserts the role by name or touches its updated_at, returning its id.
// ON CONFLICT keeps the seed safe under concurrent bootstrap.
func (r *Repository) UpsertRole(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING id`, name).Scan(&id)
	return id, err
}

// UpsertPermission inserts the permission by name, returning its id.
func (r *Repository) UpsertPermission(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&id)
	return id, err
}

// ReplacePermissions makes the role's permission set exactly permissionIDs,
// attaching and detaching inside one transaction.
func (r *Repository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, pid := range permissionIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, roleID, pid); err != nil {
				return err
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (Role, error) {
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt, &role.Permissions); err != nil {
		return Role{}, err
	}
	return role, nil
}

func scanRoleRow(row pgx.Row) (Role, error) {
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}
