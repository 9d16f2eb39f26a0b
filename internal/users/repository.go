package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lensfolio/lensfolio/internal/rbac"
	"github.com/lensfolio/lensfolio/internal/shared"
)

const pgUniqueViolation = "23505"

const userColumns = `u.id, u.username, u.email, u.name, u.bio, u.website, u.location,
	u.role_id, r.name, u.active, u.locked, u.confirmed, u.member_since, u.updated_at`

// Repository provides PostgreSQL backed persistence for users. Every state
// transition is a single UPDATE so concurrent authorize calls never observe
// a half-applied lock or block.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a user with its role name.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1`, id)
	return scanUser(row)
}

// Create registers a user with the default User role.
func (r *Repository) Create(ctx context.Context, nu NewUser) (User, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, name, role_id, active, locked, confirmed, member_since, updated_at)
		VALUES ($1, $2, $3, $4, (SELECT id FROM roles WHERE name = $5), TRUE, FALSE, FALSE, NOW(), NOW())
		RETURNING id`,
		nu.Username, nu.Email, nu.PasswordHash, nu.Name, rbac.RoleUser).Scan(&id)
	if err != nil {
		return User{}, mapConflict(err)
	}
	return r.GetByID(ctx, id)
}

// Block deactivates the account. The role is untouched.
func (r *Repository) Block(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
}

// Unblock reactivates the account.
func (r *Repository) Unblock(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET active = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

// Lock sets the locked flag and reassigns the user to the Locked role in the
// same statement, so no concurrent read sees one without the other.
func (r *Repository) Lock(ctx context.Context, id int64) error {
	return r.exec(ctx, `
		UPDATE users
		SET locked = TRUE,
		    role_id = (SELECT id FROM roles WHERE name = $2),
		    updated_at = NOW()
		WHERE id = $1`, id, rbac.RoleLocked)
}

// Unlock clears the locked flag and resets the role to the default User role.
func (r *Repository) Unlock(ctx context.Context, id int64) error {
	return r.exec(ctx, `
		UPDATE users
		SET locked = FALSE,
		    role_id = (SELECT id FROM roles WHERE name = $2),
		    updated_at = NOW()
		WHERE id = $1`, id, rbac.RoleUser)
}

// SetRole reassigns the user's role and locked flag atomically.
func (r *Repository) SetRole(ctx context.Context, id, roleID int64, locked bool) error {
	return r.exec(ctx, `UPDATE users SET role_id = $2, locked = $3, updated_at = NOW() WHERE id = $1`, id, roleID, locked)
}

// UpdateProfile applies an administrator profile edit. When the edit carries
// a role change the role and locked flag go into the same UPDATE, so the
// edit commits as a whole or not at all.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, up AdminProfileUpdate) error {
	if up.RoleID != 0 {
		err := r.exec(ctx, `
			UPDATE users
			SET username = $2, email = $3, name = $4, bio = $5, website = $6,
			    location = $7, confirmed = $8, active = $9, role_id = $10,
			    locked = $11, updated_at = NOW()
			WHERE id = $1`,
			id, up.Username, up.Email, up.Name, up.Bio, up.Website, up.Location,
			up.Confirmed, up.Active, up.RoleID, up.Locked)
		return mapConflict(err)
	}
	err := r.exec(ctx, `
		UPDATE users
		SET username = $2, email = $3, name = $4, bio = $5, website = $6,
		    location = $7, confirmed = $8, active = $9, updated_at = NOW()
		WHERE id = $1`,
		id, up.Username, up.Email, up.Name, up.Bio, up.Website, up.Location, up.Confirmed, up.Active)
	return mapConflict(err)
}

// PrincipalByID resolves the access-control view of a user: account flags,
// role name, and the role's effective permission names.
func (r *Repository) PrincipalByID(ctx context.Context, id int64) (*rbac.Principal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT u.id, u.active, u.locked, r.name,
		       COALESCE(array_agg(p.name ORDER BY p.id) FILTER (WHERE p.name IS NOT NULL), '{}')
		FROM users u
		JOIN roles r ON r.id = u.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE u.id = $1
		GROUP BY u.id, r.name`, id)
	var principal rbac.Principal
	if err := row.Scan(&principal.ID, &principal.Active, &principal.Locked, &principal.RoleName, &principal.Permissions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &principal, nil
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// mapConflict converts unique-violation errors into the shared duplicate
// sentinel, annotated with the offending column.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return fmt.Errorf("%w: email already in use", shared.ErrDuplicate)
		case "users_username_key":
			return fmt.Errorf("%w: username already in use", shared.ErrDuplicate)
		default:
			return fmt.Errorf("%w: %s", shared.ErrDuplicate, pgErr.ConstraintName)
		}
	}
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Bio, &u.Website, &u.Location,
		&u.RoleID, &u.RoleName, &u.Active, &u.Locked, &u.Confirmed, &u.MemberSince, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
