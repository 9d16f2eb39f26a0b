package moderation

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lensfolio/lensfolio/internal/rbac"
	"github.com/lensfolio/lensfolio/internal/shared"
	"github.com/lensfolio/lensfolio/internal/users"
)

type memoryRepo struct {
	users     []users.User
	photos    []Photo
	comments  []Comment
	tags      []Tag
	photoTags map[int64][]int64 // tag id -> photo ids
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{photoTags: make(map[int64][]int64)}
}

func (m *memoryRepo) matchUsers(filter UserFilter) []users.User {
	var out []users.User
	for _, u := range m.users {
		switch filter {
		case UserFilterLocked:
			if !u.Locked {
				continue
			}
		case UserFilterBlocked:
			if u.Active {
				continue
			}
		case UserFilterAdministrator:
			if u.RoleName != rbac.RoleAdministrator {
				continue
			}
		case UserFilterModerator:
			if u.RoleName != rbac.RoleModerator {
				continue
			}
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MemberSince.After(out[j].MemberSince) })
	return out
}

func (m *memoryRepo) CountUsers(ctx context.Context, filter UserFilter) (int, error) {
	return len(m.matchUsers(filter)), nil
}

func (m *memoryRepo) ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]users.User, error) {
	return pageOf(m.matchUsers(filter), limit, offset), nil
}

func (m *memoryRepo) CountPhotos(ctx context.Context) (int, error) { return len(m.photos), nil }

func (m *memoryRepo) CountReportedPhotos(ctx context.Context) (int, error) {
	n := 0
	for _, p := range m.photos {
		if p.Flag > 0 {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) ListPhotos(ctx context.Context, order ListOrder, limit, offset int) ([]Photo, error) {
	sorted := append([]Photo(nil), m.photos...)
	if order == OrderByTime {
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	} else {
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Flag > sorted[j].Flag })
	}
	return pageOf(sorted, limit, offset), nil
}

func (m *memoryRepo) CountComments(ctx context.Context) (int, error) { return len(m.comments), nil }

func (m *memoryRepo) CountReportedComments(ctx context.Context) (int, error) {
	n := 0
	for _, c := range m.comments {
		if c.Flag > 0 {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) ListComments(ctx context.Context, order ListOrder, limit, offset int) ([]Comment, error) {
	sorted := append([]Comment(nil), m.comments...)
	if order == OrderByTime {
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	} else {
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Flag > sorted[j].Flag })
	}
	return pageOf(sorted, limit, offset), nil
}

func (m *memoryRepo) CountTags(ctx context.Context) (int, error) { return len(m.tags), nil }

func (m *memoryRepo) ListTags(ctx context.Context, limit, offset int) ([]Tag, error) {
	sorted := append([]Tag(nil), m.tags...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	for i := range sorted {
		sorted[i].PhotoCount = len(m.photoTags[sorted[i].ID])
	}
	return pageOf(sorted, limit, offset), nil
}

func (m *memoryRepo) DeleteTag(ctx context.Context, id int64) error {
	for i, t := range m.tags {
		if t.ID == id {
			m.tags = append(m.tags[:i], m.tags[i+1:]...)
			delete(m.photoTags, id)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memoryRepo) ReportPhoto(ctx context.Context, id int64) error {
	for i := range m.photos {
		if m.photos[i].ID == id {
			m.photos[i].Flag++
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memoryRepo) ReportComment(ctx context.Context, id int64) error {
	for i := range m.comments {
		if m.comments[i].ID == id {
			m.comments[i].Flag++
			return nil
		}
	}
	return shared.ErrNotFound
}

func pageOf[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func seedPhotos(repo *memoryRepo, n int) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		repo.photos = append(repo.photos, Photo{
			ID:        int64(i),
			OwnerID:   1,
			Flag:      i, // distinct flags, newest photo most reported
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
}

func TestListPhotosByFlagPaging(t *testing.T) {
	repo := newMemoryRepo()
	seedPhotos(repo, 25)
	svc := NewService(repo)
	ctx := context.Background()

	page, err := svc.ListPhotos(ctx, OrderByFlag, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 10)
	require.Equal(t, 25, page.Paging.Total)
	require.True(t, page.Paging.HasNext)
	require.False(t, page.Paging.HasPrev)
	for i := 1; i < len(page.Items); i++ {
		require.Greater(t, page.Items[i-1].Flag, page.Items[i].Flag)
	}
	require.Equal(t, 25, page.Items[0].Flag)

	page, err = svc.ListPhotos(ctx, OrderByFlag, 3, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	require.False(t, page.Paging.HasNext)
	require.True(t, page.Paging.HasPrev)

	// Past the end: an empty page, not an error.
	page, err = svc.ListPhotos(ctx, OrderByFlag, 4, 10)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.False(t, page.Paging.HasNext)
}

func TestListPhotosByTime(t *testing.T) {
	repo := newMemoryRepo()
	seedPhotos(repo, 5)
	// Flip one flag so the two orders disagree.
	repo.photos[0].Flag = 100
	svc := NewService(repo)

	page, err := svc.ListPhotos(context.Background(), OrderByTime, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(5), page.Items[0].ID)
	for i := 1; i < len(page.Items); i++ {
		require.True(t, page.Items[i-1].CreatedAt.After(page.Items[i].CreatedAt))
	}
}

func TestListCommentsByFlagStable(t *testing.T) {
	repo := newMemoryRepo()
	// Two flag groups; within a group the original order must survive.
	repo.comments = []Comment{
		{ID: 1, Flag: 0},
		{ID: 2, Flag: 3},
		{ID: 3, Flag: 0},
		{ID: 4, Flag: 3},
	}
	svc := NewService(repo)

	page, err := svc.ListComments(context.Background(), OrderByFlag, 1, 10)
	require.NoError(t, err)
	got := make([]int64, 0, len(page.Items))
	for _, c := range page.Items {
		got = append(got, c.ID)
	}
	require.Equal(t, []int64{2, 4, 1, 3}, got)
}

func TestListUsersFiltered(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.users = []users.User{
		{ID: 1, Username: "alice", RoleName: rbac.RoleAdministrator, Active: true, MemberSince: base},
		{ID: 2, Username: "bob", RoleName: rbac.RoleUser, Active: false, MemberSince: base.AddDate(0, 1, 0)},
		{ID: 3, Username: "carol", RoleName: rbac.RoleModerator, Active: true, MemberSince: base.AddDate(0, 2, 0)},
		{ID: 4, Username: "dave", RoleName: rbac.RoleLocked, Active: true, Locked: true, MemberSince: base.AddDate(0, 3, 0)},
		{ID: 5, Username: "erin", RoleName: rbac.RoleAdministrator, Active: true, MemberSince: base.AddDate(0, 4, 0)},
	}
	svc := NewService(repo)
	ctx := context.Background()

	page, err := svc.ListUsers(ctx, UserFilterAdministrator, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	// Newest member first.
	require.Equal(t, "erin", page.Items[0].Username)
	require.Equal(t, "alice", page.Items[1].Username)

	page, err = svc.ListUsers(ctx, UserFilterBlocked, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "bob", page.Items[0].Username)

	page, err = svc.ListUsers(ctx, UserFilterLocked, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "dave", page.Items[0].Username)

	page, err = svc.ListUsers(ctx, UserFilterAll, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
}

func TestDeleteTagKeepsPhotos(t *testing.T) {
	repo := newMemoryRepo()
	seedPhotos(repo, 3)
	repo.tags = []Tag{{ID: 1, Name: "street"}, {ID: 2, Name: "macro"}}
	repo.photoTags[1] = []int64{1, 2}
	repo.photoTags[2] = []int64{2, 3}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.DeleteTag(ctx, 1))

	tags, err := svc.ListTags(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, tags.Items, 1)
	require.Equal(t, "macro", tags.Items[0].Name)

	photos, err := svc.ListPhotos(ctx, OrderByTime, 1, 10)
	require.NoError(t, err)
	require.Len(t, photos.Items, 3)

	require.ErrorIs(t, svc.DeleteTag(ctx, 1), shared.ErrNotFound)
}

func TestListTagsNewestFirst(t *testing.T) {
	repo := newMemoryRepo()
	repo.tags = []Tag{{ID: 1, Name: "street"}, {ID: 3, Name: "portrait"}, {ID: 2, Name: "macro"}}
	repo.photoTags[3] = []int64{7}
	svc := NewService(repo)

	page, err := svc.ListTags(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 2, 1}, []int64{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})
	require.Equal(t, 1, page.Items[0].PhotoCount)
	require.Equal(t, 0, page.Items[1].PhotoCount)
}

func TestReportIncrements(t *testing.T) {
	repo := newMemoryRepo()
	seedPhotos(repo, 1)
	repo.photos[0].Flag = 0
	repo.comments = []Comment{{ID: 9, Flag: 0}}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.ReportPhoto(ctx, 1))
	require.NoError(t, svc.ReportPhoto(ctx, 1))
	require.Equal(t, 2, repo.photos[0].Flag)

	require.NoError(t, svc.ReportComment(ctx, 9))
	require.Equal(t, 1, repo.comments[0].Flag)

	require.ErrorIs(t, svc.ReportPhoto(ctx, 404), shared.ErrNotFound)
	require.ErrorIs(t, svc.ReportComment(ctx, 404), shared.ErrNotFound)
}

func TestSummaryCounts(t *testing.T) {
	repo := newMemoryRepo()
	seedPhotos(repo, 4)
	repo.photos[0].Flag = 0
	repo.photos[1].Flag = 0
	repo.users = []users.User{
		{ID: 1, Active: true},
		{ID: 2, Active: false},
		{ID: 3, Active: true, Locked: true},
	}
	repo.comments = []Comment{{ID: 1, Flag: 2}, {ID: 2, Flag: 0}}
	repo.tags = []Tag{{ID: 1, Name: "street"}}
	svc := NewService(repo)

	got, err := svc.SummaryCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, Summary{
		Users:            3,
		LockedUsers:      1,
		BlockedUsers:     1,
		Photos:           4,
		ReportedPhotos:   2,
		Tags:             1,
		Comments:         2,
		ReportedComments: 1,
	}, got)
}

func TestParseUserFilter(t *testing.T) {
	require.Equal(t, UserFilterLocked, ParseUserFilter("locked"))
	require.Equal(t, UserFilterModerator, ParseUserFilter("moderator"))
	require.Equal(t, UserFilterAll, ParseUserFilter(""))
	require.Equal(t, UserFilterAll, ParseUserFilter("suspended"))
}

func TestParseListOrder(t *testing.T) {
	require.Equal(t, OrderByTime, ParseListOrder("by_time"))
	require.Equal(t, OrderByFlag, ParseListOrder("by_flag"))
	require.Equal(t, OrderByFlag, ParseListOrder(""))
	require.Equal(t, OrderByFlag, ParseListOrder("by_likes"))
}
