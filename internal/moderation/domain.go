// Package moderation implements the moderation queue: flag counters on
// photos and comments, filtered user listings, tag management, and the
// dashboard summary moderators work from.
package moderation

import (
	"time"

	"github.com/lensfolio/lensfolio/internal/shared"
	"github.com/lensfolio/lensfolio/internal/users"
)

// UserFilter selects which accounts a user listing shows. It is a closed
// enumeration: unrecognized input degrades to UserFilterAll.
type UserFilter string

// User listing filters.
const (
	UserFilterAll           UserFilter = "all"
	UserFilterLocked        UserFilter = "locked"
	UserFilterBlocked       UserFilter = "blocked"
	UserFilterAdministrator UserFilter = "administrator"
	UserFilterModerator     UserFilter = "moderator"
)

// ParseUserFilter maps raw input onto the filter enumeration, defaulting to
// UserFilterAll for anything unrecognized.
func ParseUserFilter(raw string) UserFilter {
	switch UserFilter(raw) {
	case UserFilterLocked, UserFilterBlocked, UserFilterAdministrator, UserFilterModerator:
		return UserFilter(raw)
	default:
		return UserFilterAll
	}
}

// ListOrder selects how flagged content listings are sorted. Unrecognized
// input degrades to OrderByFlag.
type ListOrder string

// Content listing orders.
const (
	OrderByFlag ListOrder = "by_flag"
	OrderByTime ListOrder = "by_time"
)

// ParseListOrder maps raw input onto the order enumeration, defaulting to
// OrderByFlag for anything unrecognized.
func ParseListOrder(raw string) ListOrder {
	if ListOrder(raw) == OrderByTime {
		return OrderByTime
	}
	return OrderByFlag
}

// Photo is a moderatable upload. Flag counts how often it has been reported.
type Photo struct {
	ID          int64
	OwnerID     int64
	Description string
	Flag        int
	CreatedAt   time.Time
}

// Comment is a moderatable comment on a photo.
type Comment struct {
	ID        int64
	PhotoID   int64
	AuthorID  int64
	Body      string
	Flag      int
	CreatedAt time.Time
}

// Tag labels photos through the photo_tags join table.
type Tag struct {
	ID         int64
	Name       string
	PhotoCount int
}

// Summary carries the dashboard counts, computed live at call time.
type Summary struct {
	Users            int `json:"users"`
	LockedUsers      int `json:"locked_users"`
	BlockedUsers     int `json:"blocked_users"`
	Photos           int `json:"photos"`
	ReportedPhotos   int `json:"reported_photos"`
	Tags             int `json:"tags"`
	Comments         int `json:"comments"`
	ReportedComments int `json:"reported_comments"`
}

// UserPage is one page of a filtered user listing.
type UserPage struct {
	Items  []users.User
	Paging shared.Pagination
}

// PhotoPage is one page of the photo queue.
type PhotoPage struct {
	Items  []Photo
	Paging shared.Pagination
}

// CommentPage is one page of the comment queue.
type CommentPage struct {
	Items  []Comment
	Paging shared.Pagination
}

// TagPage is one page of the tag listing.
type TagPage struct {
	Items  []Tag
	Paging shared.Pagination
}
