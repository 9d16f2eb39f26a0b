package moderation

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lensfolio/lensfolio/internal/platform/httpx"
	"github.com/lensfolio/lensfolio/internal/rbac"
	"github.com/lensfolio/lensfolio/internal/roles"
	"github.com/lensfolio/lensfolio/internal/shared"
	"github.com/lensfolio/lensfolio/internal/users"
)

// Handler exposes the admin console endpoints: dashboard, user management,
// content queues, tags and role administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	users     *users.Service
	roles     *roles.Service
	audit     *shared.AuditLogger
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, userSvc *users.Service, roleSvc *roles.Service, audit *shared.AuditLogger, guard rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		users:     userSvc,
		roles:     roleSvc,
		audit:     audit,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers the admin console routes. Moderation endpoints need
// the MODERATE permission; the most sensitive endpoints require the
// Administrator role itself.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(rbac.PermModerate))
		r.Get("/", h.dashboard)
		r.Get("/users", h.listUsers)
		r.Post("/users/{id}/block", h.userAction("block", h.users.Block))
		r.Post("/users/{id}/unblock", h.userAction("unblock", h.users.Unblock))
		r.Post("/users/{id}/lock", h.userAction("lock", h.users.Lock))
		r.Post("/users/{id}/unlock", h.userAction("unlock", h.users.Unlock))
		r.Get("/photos", h.listPhotos)
		r.Get("/comments", h.listComments)
		r.Get("/tags", h.listTags)
		r.Delete("/tags/{id}", h.deleteTag)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(rbac.RoleAdministrator))
		r.Get("/roles", h.listRoles)
		r.Put("/users/{id}/profile", h.editProfile)
		r.Put("/roles/{id}/permissions", h.setRolePermissions)
	})
}

// MountReportRoutes registers the member-facing report actions that feed the
// flag counters.
func (h *Handler) MountReportRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(rbac.PermComment))
		r.Post("/photos/{id}/report", h.reportPhoto)
		r.Post("/comments/{id}/report", h.reportComment)
	})
}

type pageResponse struct {
	Items   any  `json:"items"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

func newPageResponse(items any, p shared.Pagination) pageResponse {
	return pageResponse{
		Items:   items,
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   p.Total,
		HasNext: p.HasNext,
		HasPrev: p.HasPrev,
	}
}

type userItem struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	RoleName    string `json:"role"`
	Active      bool   `json:"active"`
	Locked      bool   `json:"locked"`
	Confirmed   bool   `json:"confirmed"`
	MemberSince string `json:"member_since"`
}

type photoItem struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Description string `json:"description"`
	Flag        int    `json:"flag"`
	CreatedAt   string `json:"created_at"`
}

type commentItem struct {
	ID        int64  `json:"id"`
	PhotoID   int64  `json:"photo_id"`
	AuthorID  int64  `json:"author_id"`
	Body      string `json:"body"`
	Flag      int    `json:"flag"`
	CreatedAt string `json:"created_at"`
}

type tagItem struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PhotoCount int    `json:"photo_count"`
}

type roleItem struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.SummaryCounts(r.Context())
	if err != nil {
		h.logger.Error("moderation summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := h.pageParams(w, r)
	if !ok {
		return
	}
	filter := ParseUserFilter(r.URL.Query().Get("filter"))
	result, err := h.service.ListUsers(r.Context(), filter, page, perPage)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]userItem, 0, len(result.Items))
	for _, u := range result.Items {
		items = append(items, userItem{
			ID:          u.ID,
			Username:    u.Username,
			Email:       u.Email,
			Name:        u.Name,
			RoleName:    u.RoleName,
			Active:      u.Active,
			Locked:      u.Locked,
			Confirmed:   u.Confirmed,
			MemberSince: u.MemberSince.UTC().Format(timeLayout),
		})
	}
	httpx.JSON(w, http.StatusOK, newPageResponse(items, result.Paging))
}

func (h *Handler) listPhotos(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := h.pageParams(w, r)
	if !ok {
		return
	}
	order := ParseListOrder(r.URL.Query().Get("order"))
	result, err := h.service.ListPhotos(r.Context(), order, page, perPage)
	if err != nil {
		h.logger.Error("list photos", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]photoItem, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, photoItem{
			ID:          p.ID,
			OwnerID:     p.OwnerID,
			Description: p.Description,
			Flag:        p.Flag,
			CreatedAt:   p.CreatedAt.UTC().Format(timeLayout),
		})
	}
	httpx.JSON(w, http.StatusOK, newPageResponse(items, result.Paging))
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := h.pageParams(w, r)
	if !ok {
		return
	}
	order := ParseListOrder(r.URL.Query().Get("order"))
	result, err := h.service.ListComments(r.Context(), order, page, perPage)
	if err != nil {
		h.logger.Error("list comments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]commentItem, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, commentItem{
			ID:        c.ID,
			PhotoID:   c.PhotoID,
			AuthorID:  c.AuthorID,
			Body:      c.Body,
			Flag:      c.Flag,
			CreatedAt: c.CreatedAt.UTC().Format(timeLayout),
		})
	}
	httpx.JSON(w, http.StatusOK, newPageResponse(items, result.Paging))
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := h.pageParams(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListTags(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list tags", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]tagItem, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, tagItem{ID: t.ID, Name: t.Name, PhotoCount: t.PhotoCount})
	}
	httpx.JSON(w, http.StatusOK, newPageResponse(items, result.Paging))
}

func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTag(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "tag.delete", "tag", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	all, err := h.roles.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]roleItem, 0, len(all))
	for _, role := range all {
		items = append(items, roleItem{ID: role.ID, Name: role.Name, Permissions: role.Permissions})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

type profileRequest struct {
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	Website   string `json:"website"`
	Location  string `json:"location"`
	Confirmed bool   `json:"confirmed"`
	Active    bool   `json:"active"`
	RoleID    int64  `json:"role_id" validate:"required"`
}

func (h *Handler) editProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.users.UpdateProfileAdmin(r.Context(), id, users.AdminProfileUpdate{
		Username:  req.Username,
		Email:     req.Email,
		Name:      req.Name,
		Bio:       req.Bio,
		Website:   req.Website,
		Location:  req.Location,
		Confirmed: req.Confirmed,
		Active:    req.Active,
		RoleID:    req.RoleID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "user.profile_edit", "user", id, map[string]any{"role": updated.RoleName})
	httpx.JSON(w, http.StatusOK, userItem{
		ID:          updated.ID,
		Username:    updated.Username,
		Email:       updated.Email,
		Name:        updated.Name,
		RoleName:    updated.RoleName,
		Active:      updated.Active,
		Locked:      updated.Locked,
		Confirmed:   updated.Confirmed,
		MemberSince: updated.MemberSince.UTC().Format(timeLayout),
	})
}

type permissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req permissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.roles.SetPermissions(r.Context(), id, req.Permissions); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "role.permissions_edit", "role", id, map[string]any{"permissions": req.Permissions})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reportPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.ReportPhoto(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reportComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.ReportComment(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userAction adapts a user state transition into an audited handler.
func (h *Handler) userAction(action string, fn func(context.Context, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.idParam(w, r)
		if !ok {
			return
		}
		if err := fn(r.Context(), id); err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.record(r, "user."+action, "user", id, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// pageParams parses page/per_page. A page below 1 is a caller error; pages
// past the end come back as empty pages from the service.
func (h *Handler) pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "page must be a positive integer")
			return 0, 0, false
		}
		page = parsed
	}
	perPage := shared.DefaultPerPage
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "per_page must be a positive integer")
			return 0, 0, false
		}
		perPage = parsed
	}
	return page, perPage, true
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) record(r *http.Request, action, entity string, entityID int64, meta map[string]any) {
	if h.audit == nil {
		return
	}
	var actorID int64
	if principal := rbac.PrincipalFromContext(r.Context()); principal != nil {
		actorID = principal.ID
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

const timeLayout = time.RFC3339
