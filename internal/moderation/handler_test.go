package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/lensfolio/lensfolio/internal/rbac"
	"github.com/lensfolio/lensfolio/internal/roles"
	"github.com/lensfolio/lensfolio/internal/shared"
	"github.com/lensfolio/lensfolio/internal/users"
	_ "github.com/lensfolio/lensfolio/testing"
)

var testRoles = []roles.Role{
	{ID: 1, Name: rbac.RoleLocked},
	{ID: 2, Name: rbac.RoleUser, Permissions: []string{rbac.PermFollow, rbac.PermCollect, rbac.PermComment, rbac.PermUpload}},
	{ID: 3, Name: rbac.RoleModerator, Permissions: []string{rbac.PermFollow, rbac.PermCollect, rbac.PermComment, rbac.PermUpload, rbac.PermModerate}},
	{ID: 4, Name: rbac.RoleAdministrator, Permissions: rbac.AllNames()},
}

func roleNamed(name string) roles.Role {
	for _, r := range testRoles {
		if r.Name == name {
			return r
		}
	}
	return roles.Role{}
}

type fakeRoleRepo struct {
	rolePerms map[int64][]string
}

func newFakeRoleRepo() *fakeRoleRepo {
	rp := make(map[int64][]string, len(testRoles))
	for _, r := range testRoles {
		rp[r.ID] = append([]string(nil), r.Permissions...)
	}
	return &fakeRoleRepo{rolePerms: rp}
}

func (f *fakeRoleRepo) List(ctx context.Context) ([]roles.Role, error) {
	out := make([]roles.Role, len(testRoles))
	copy(out, testRoles)
	for i := range out {
		out[i].Permissions = f.rolePerms[out[i].ID]
	}
	return out, nil
}

func (f *fakeRoleRepo) FindByName(ctx context.Context, name string) (roles.Role, error) {
	if r := roleNamed(name); r.ID != 0 {
		r.Permissions = f.rolePerms[r.ID]
		return r, nil
	}
	return roles.Role{}, shared.ErrNotFound
}

func (f *fakeRoleRepo) GetByID(ctx context.Context, id int64) (roles.Role, error) {
	for _, r := range testRoles {
		if r.ID == id {
			r.Permissions = f.rolePerms[id]
			return r, nil
		}
	}
	return roles.Role{}, shared.ErrNotFound
}

func (f *fakeRoleRepo) UpsertRole(ctx context.Context, name string) (int64, error) {
	return roleNamed(name).ID, nil
}

func (f *fakeRoleRepo) UpsertPermission(ctx context.Context, name string) (int64, error) {
	for i, p := range rbac.AllNames() {
		if p == name {
			return int64(i + 1), nil
		}
	}
	return 0, shared.ErrNotFound
}

func (f *fakeRoleRepo) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	names := rbac.AllNames()
	perms := make([]string, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		perms = append(perms, names[id-1])
	}
	f.rolePerms[roleID] = perms
	return nil
}

type fakeUserRepo struct {
	users map[int64]*users.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*users.User)}
}

func (f *fakeUserRepo) add(id int64, roleName string, active bool) {
	role := roleNamed(roleName)
	f.users[id] = &users.User{
		ID:       id,
		Username: "user" + strconv.FormatInt(id, 10),
		Email:    "user" + strconv.FormatInt(id, 10) + "@example.com",
		RoleID:   role.ID,
		RoleName: role.Name,
		Active:   active,
		Locked:   roleName == rbac.RoleLocked,
	}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return *u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, nu users.NewUser) (users.User, error) {
	return users.User{}, shared.ErrDuplicate
}

func (f *fakeUserRepo) Block(ctx context.Context, id int64) error {
	return f.mutate(id, func(u *users.User) { u.Active = false })
}

func (f *fakeUserRepo) Unblock(ctx context.Context, id int64) error {
	return f.mutate(id, func(u *users.User) { u.Active = true })
}

func (f *fakeUserRepo) Lock(ctx context.Context, id int64) error {
	locked := roleNamed(rbac.RoleLocked)
	return f.mutate(id, func(u *users.User) {
		u.RoleID = locked.ID
		u.RoleName = locked.Name
		u.Locked = true
	})
}

func (f *fakeUserRepo) Unlock(ctx context.Context, id int64) error {
	def := roleNamed(rbac.RoleUser)
	return f.mutate(id, func(u *users.User) {
		u.RoleID = def.ID
		u.RoleName = def.Name
		u.Locked = false
	})
}

func (f *fakeUserRepo) SetRole(ctx context.Context, id, roleID int64, locked bool) error {
	return f.mutate(id, func(u *users.User) {
		for _, r := range testRoles {
			if r.ID == roleID {
				u.RoleID = r.ID
				u.RoleName = r.Name
			}
		}
		u.Locked = locked
	})
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id int64, up users.AdminProfileUpdate) error {
	return f.mutate(id, func(u *users.User) {
		u.Username = up.Username
		u.Email = up.Email
		u.Name = up.Name
		u.Active = up.Active
		u.Confirmed = up.Confirmed
		if up.RoleID != 0 {
			for _, r := range testRoles {
				if r.ID == up.RoleID {
					u.RoleID = r.ID
					u.RoleName = r.Name
				}
			}
			u.Locked = up.Locked
		}
	})
}

func (f *fakeUserRepo) PrincipalByID(ctx context.Context, id int64) (*rbac.Principal, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rbac.Principal{
		ID:          u.ID,
		Active:      u.Active,
		Locked:      u.Locked,
		RoleName:    u.RoleName,
		Permissions: roleNamed(u.RoleName).Permissions,
	}, nil
}

func (f *fakeUserRepo) mutate(id int64, fn func(*users.User)) error {
	u, ok := f.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	fn(u)
	return nil
}

type handlerEnv struct {
	repo     *memoryRepo
	userRepo *fakeUserRepo
	router   chi.Router
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := newMemoryRepo()
	userRepo := newFakeUserRepo()
	// Fixed cast: an admin, a moderator, a plain member, and a locked one.
	userRepo.add(1, rbac.RoleAdministrator, true)
	userRepo.add(2, rbac.RoleModerator, true)
	userRepo.add(3, rbac.RoleUser, true)
	userRepo.add(4, rbac.RoleLocked, true)

	roleSvc := roles.NewService(newFakeRoleRepo())
	userSvc := users.NewService(userRepo, roleSvc)
	guard := rbac.Middleware{Source: userSvc, Logger: logger}
	handler := NewHandler(logger, NewService(repo), userSvc, roleSvc, nil, guard)

	r := chi.NewRouter()
	r.Route("/admin", handler.MountRoutes)
	handler.MountReportRoutes(r)
	return &handlerEnv{repo: repo, userRepo: userRepo, router: r}
}

// do issues a request as the given user; userID 0 is anonymous.
func (e *handlerEnv) do(t *testing.T, method, target string, body any, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		sess := &shared.Session{ID: "test-session"}
		sess.SetUser(strconv.FormatInt(userID, 10))
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesGated(t *testing.T) {
	env := newHandlerEnv(t)

	require.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/admin/users", nil, 0).Code)
	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/admin/users", nil, 3).Code)
	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/admin/users", nil, 4).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/admin/users", nil, 2).Code)

	// Role administration is held back from moderators.
	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/admin/roles", nil, 2).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/admin/roles", nil, 1).Code)
}

func TestDashboardCounts(t *testing.T) {
	env := newHandlerEnv(t)
	seedPhotos(env.repo, 3)
	env.repo.tags = []Tag{{ID: 1, Name: "street"}}

	rec := env.do(t, http.MethodGet, "/admin/", nil, 2)
	require.Equal(t, http.StatusOK, rec.Code)

	var got Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 3, got.Photos)
	require.Equal(t, 1, got.Tags)
}

func TestPageParamValidation(t *testing.T) {
	env := newHandlerEnv(t)
	seedPhotos(env.repo, 3)

	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/admin/photos?page=0", nil, 2).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/admin/photos?page=-1", nil, 2).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/admin/photos?page=abc", nil, 2).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/admin/photos?per_page=0", nil, 2).Code)

	// Past the end is an empty page, not an error.
	rec := env.do(t, http.MethodGet, "/admin/photos?page=99", nil, 2)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items   []photoItem `json:"items"`
		HasNext bool        `json:"has_next"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Empty(t, page.Items)
	require.False(t, page.HasNext)
}

func TestLockUnlockEndpoints(t *testing.T) {
	env := newHandlerEnv(t)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/admin/users/3/lock", nil, 2).Code)
	u, err := env.userRepo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, u.Locked)
	require.Equal(t, rbac.RoleLocked, u.RoleName)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/admin/users/3/unlock", nil, 2).Code)
	u, err = env.userRepo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, u.Locked)
	require.Equal(t, rbac.RoleUser, u.RoleName)

	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/admin/users/404/lock", nil, 2).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/admin/users/abc/lock", nil, 2).Code)
}

func TestDeleteTagEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	seedPhotos(env.repo, 2)
	env.repo.tags = []Tag{{ID: 1, Name: "street"}}
	env.repo.photoTags[1] = []int64{1, 2}

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/admin/tags/1", nil, 2).Code)
	require.Empty(t, env.repo.tags)
	require.Len(t, env.repo.photos, 2)

	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/admin/tags/1", nil, 2).Code)
}

func TestSetRolePermissionsEndpoint(t *testing.T) {
	env := newHandlerEnv(t)

	body := map[string]any{"permissions": []string{rbac.PermFollow, "TELEPORT"}}
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/admin/roles/2/permissions", body, 1).Code)

	body = map[string]any{"permissions": []string{rbac.PermFollow, rbac.PermComment}}
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPut, "/admin/roles/2/permissions", body, 1).Code)
}

func TestEditProfileEndpoint(t *testing.T) {
	env := newHandlerEnv(t)

	body := map[string]any{
		"username": "Renamed",
		"email":    "renamed@example.com",
		"active":   true,
		"role_id":  int64(3),
	}
	rec := env.do(t, http.MethodPut, "/admin/users/3/profile", body, 1)
	require.Equal(t, http.StatusOK, rec.Code)

	var got userItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "renamed", got.Username)
	require.Equal(t, rbac.RoleModerator, got.RoleName)
}

func TestEditProfileUnknownRoleLeavesUserUntouched(t *testing.T) {
	env := newHandlerEnv(t)

	body := map[string]any{
		"username": "renamed",
		"email":    "renamed@example.com",
		"active":   true,
		"role_id":  int64(999),
	}
	rec := env.do(t, http.MethodPut, "/admin/users/3/profile", body, 1)
	require.Equal(t, http.StatusNotFound, rec.Code)

	u, err := env.userRepo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "user3", u.Username)
	require.Equal(t, rbac.RoleUser, u.RoleName)
}

func TestReportEndpoints(t *testing.T) {
	env := newHandlerEnv(t)
	env.repo.photos = []Photo{{ID: 1, CreatedAt: time.Now()}}
	env.repo.comments = []Comment{{ID: 5, CreatedAt: time.Now()}}

	// Any member with the COMMENT permission may report; locked users may not.
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/photos/1/report", nil, 3).Code)
	require.Equal(t, 1, env.repo.photos[0].Flag)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/comments/5/report", nil, 3).Code)
	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/photos/1/report", nil, 4).Code)
	require.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/photos/1/report", nil, 0).Code)

	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/photos/404/report", nil, 3).Code)
}
