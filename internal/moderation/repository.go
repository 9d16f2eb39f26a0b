package moderation

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lensfolio/lensfolio/internal/platform/db"
	"github.com/lensfolio/lensfolio/internal/rbac"
	"github.com/lensfolio/lensfolio/internal/shared"
	"github.com/lensfolio/lensfolio/internal/users"
)

// Repository provides PostgreSQL backed persistence for the moderation queue.
// Listings are plain snapshot reads; a flag incremented concurrently may or
// may not appear on the current page.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// userFilterClause maps each filter to an explicit predicate. The enumeration
// is closed, so the default arm can only be UserFilterAll.
func userFilterClause(filter UserFilter) (string, []any) {
	switch filter {
	case UserFilterLocked:
		return "u.locked", nil
	case UserFilterBlocked:
		return "NOT u.active", nil
	case UserFilterAdministrator:
		return "r.name = $1", []any{rbac.RoleAdministrator}
	case UserFilterModerator:
		return "r.name = $1", []any{rbac.RoleModerator}
	default:
		return "TRUE", nil
	}
}

// CountUsers counts accounts matching the filter.
func (r *Repository) CountUsers(ctx context.Context, filter UserFilter) (int, error) {
	clause, args := userFilterClause(filter)
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users u JOIN roles r ON r.id = u.role_id WHERE `+clause, args...).Scan(&count)
	return count, err
}

// ListUsers returns one page of accounts matching the filter, newest members
// first.
func (r *Repository) ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]users.User, error) {
	clause, args := userFilterClause(filter)
	args = append(args, limit, offset)
	limitPos := len(args) - 1 // 1-based positions of limit/offset params
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username, u.email, u.name, u.bio, u.website, u.location,
		       u.role_id, r.name, u.active, u.locked, u.confirmed, u.member_since, u.updated_at
		FROM users u JOIN roles r ON r.id = u.role_id
		WHERE `+clause+`
		ORDER BY u.member_since DESC, u.id DESC
		LIMIT $`+strconv.Itoa(limitPos)+` OFFSET $`+strconv.Itoa(limitPos+1), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []users.User
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Bio, &u.Website, &u.Location,
			&u.RoleID, &u.RoleName, &u.Active, &u.Locked, &u.Confirmed, &u.MemberSince, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// CountPhotos counts all photos.
func (r *Repository) CountPhotos(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM photos`)
}

// CountReportedPhotos counts photos with at least one report.
func (r *Repository) CountReportedPhotos(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM photos WHERE flag > 0`)
}

// ListPhotos returns one page of the photo queue. by_flag sorts on the
// report counter, breaking ties by insertion order so the sort is stable;
// by_time sorts newest first.
func (r *Repository) ListPhotos(ctx context.Context, order ListOrder, limit, offset int) ([]Photo, error) {
	orderBy := `flag DESC, id ASC`
	if order == OrderByTime {
		orderBy = `created_at DESC, id DESC`
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, description, flag, created_at
		FROM photos
		ORDER BY `+orderBy+`
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Description, &p.Flag, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// CountComments counts all comments.
func (r *Repository) CountComments(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM comments`)
}

// CountReportedComments counts comments with at least one report.
func (r *Repository) CountReportedComments(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM comments WHERE flag > 0`)
}

// ListComments returns one page of the comment queue, same ordering contract
// as ListPhotos.
func (r *Repository) ListComments(ctx context.Context, order ListOrder, limit, offset int) ([]Comment, error) {
	orderBy := `flag DESC, id ASC`
	if order == OrderByTime {
		orderBy = `created_at DESC, id DESC`
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, photo_id, author_id, body, flag, created_at
		FROM comments
		ORDER BY `+orderBy+`
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PhotoID, &c.AuthorID, &c.Body, &c.Flag, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountTags counts all tags.
func (r *Repository) CountTags(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tags`)
}

// ListTags returns one page of tags, newest first, with per-tag photo counts.
func (r *Repository) ListTags(ctx context.Context, limit, offset int) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, COUNT(pt.photo_id)
		FROM tags t
		LEFT JOIN photo_tags pt ON pt.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.PhotoCount); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeleteTag removes the tag and its photo associations. The photos
// themselves are untouched. Returns shared.ErrNotFound for an unknown id.
func (r *Repository) DeleteTag(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM photo_tags WHERE tag_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ReportPhoto increments the photo's report counter atomically.
func (r *Repository) ReportPhoto(ctx context.Context, id int64) error {
	return r.increment(ctx, `UPDATE photos SET flag = flag + 1 WHERE id = $1`, id)
}

// ReportComment increments the comment's report counter atomically.
func (r *Repository) ReportComment(ctx context.Context, id int64) error {
	return r.increment(ctx, `UPDATE comments SET flag = flag + 1 WHERE id = $1`, id)
}

func (r *Repository) count(ctx context.Context, sql string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, sql).Scan(&count)
	return count, err
}

func (r *Repository) increment(ctx context.Context, sql string, id int64) error {
	tag, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
