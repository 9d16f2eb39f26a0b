package moderation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lensfolio/lensfolio/internal/shared"
	"github.com/lensfolio/lensfolio/internal/users"
)

// RepositoryPort defines data access methods for the moderation queue.
type RepositoryPort interface {
	CountUsers(ctx context.Context, filter UserFilter) (int, error)
	ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]users.User, error)
	CountPhotos(ctx context.Context) (int, error)
	CountReportedPhotos(ctx context.Context) (int, error)
	ListPhotos(ctx context.Context, order ListOrder, limit, offset int) ([]Photo, error)
	CountComments(ctx context.Context) (int, error)
	CountReportedComments(ctx context.Context) (int, error)
	ListComments(ctx context.Context, order ListOrder, limit, offset int) ([]Comment, error)
	CountTags(ctx context.Context) (int, error)
	ListTags(ctx context.Context, limit, offset int) ([]Tag, error)
	DeleteTag(ctx context.Context, id int64) error
	ReportPhoto(ctx context.Context, id int64) error
	ReportComment(ctx context.Context, id int64) error
}

// Service handles moderation queue business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns one page of accounts matching the filter, ordered by
// registration time descending.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter, page, perPage int) (UserPage, error) {
	total, err := s.repo.CountUsers(ctx, filter)
	if err != nil {
		return UserPage{}, err
	}
	paging := shared.NewPagination(page, perPage, total)
	items, err := s.repo.ListUsers(ctx, filter, paging.PerPage, paging.Offset())
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Items: items, Paging: paging}, nil
}

// ListPhotos returns one page of the photo queue.
func (s *Service) ListPhotos(ctx context.Context, order ListOrder, page, perPage int) (PhotoPage, error) {
	total, err := s.repo.CountPhotos(ctx)
	if err != nil {
		return PhotoPage{}, err
	}
	paging := shared.NewPagination(page, perPage, total)
	items, err := s.repo.ListPhotos(ctx, order, paging.PerPage, paging.Offset())
	if err != nil {
		return PhotoPage{}, err
	}
	return PhotoPage{Items: items, Paging: paging}, nil
}

// ListComments returns one page of the comment queue.
func (s *Service) ListComments(ctx context.Context, order ListOrder, page, perPage int) (CommentPage, error) {
	total, err := s.repo.CountComments(ctx)
	if err != nil {
		return CommentPage{}, err
	}
	paging := shared.NewPagination(page, perPage, total)
	items, err := s.repo.ListComments(ctx, order, paging.PerPage, paging.Offset())
	if err != nil {
		return CommentPage{}, err
	}
	return CommentPage{Items: items, Paging: paging}, nil
}

// ListTags returns one page of tags ordered by id descending.
func (s *Service) ListTags(ctx context.Context, page, perPage int) (TagPage, error) {
	total, err := s.repo.CountTags(ctx)
	if err != nil {
		return TagPage{}, err
	}
	paging := shared.NewPagination(page, perPage, total)
	items, err := s.repo.ListTags(ctx, paging.PerPage, paging.Offset())
	if err != nil {
		return TagPage{}, err
	}
	return TagPage{Items: items, Paging: paging}, nil
}

// DeleteTag removes the tag and its photo associations; photos survive.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	return s.repo.DeleteTag(ctx, id)
}

// ReportPhoto increments a photo's report counter.
func (s *Service) ReportPhoto(ctx context.Context, id int64) error {
	return s.repo.ReportPhoto(ctx, id)
}

// ReportComment increments a comment's report counter.
func (s *Service) ReportComment(ctx context.Context, id int64) error {
	return s.repo.ReportComment(ctx, id)
}

// SummaryCounts computes the dashboard counts live, fanning the eight count
// queries out concurrently. Results are never cached here; the warmup job
// caches a copy for cheap dashboard refreshes.
func (s *Service) SummaryCounts(ctx context.Context) (Summary, error) {
	var summary Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary.Users, err = s.repo.CountUsers(ctx, UserFilterAll)
		return err
	})
	g.Go(func() (err error) {
		summary.LockedUsers, err = s.repo.CountUsers(ctx, UserFilterLocked)
		return err
	})
	g.Go(func() (err error) {
		summary.BlockedUsers, err = s.repo.CountUsers(ctx, UserFilterBlocked)
		return err
	})
	g.Go(func() (err error) {
		summary.Photos, err = s.repo.CountPhotos(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.ReportedPhotos, err = s.repo.CountReportedPhotos(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.Tags, err = s.repo.CountTags(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.Comments, err = s.repo.CountComments(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.ReportedComments, err = s.repo.CountReportedComments(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
