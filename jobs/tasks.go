// Package jobs contains the asynq task definitions and worker runtime.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/lensfolio/lensfolio/internal/moderation"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskModerationSummaryWarmup recomputes the moderation dashboard counts
	// and caches them for cheap reads between refreshes.
	TaskModerationSummaryWarmup = "moderation:summary_warmup"
	// SummaryCacheKey is where the warmed summary lives in Redis.
	SummaryCacheKey = "moderation:summary"
)

// SummaryWarmupPayload configures a warmup run.
type SummaryWarmupPayload struct {
	TTL time.Duration `json:"ttl"`
}

// NewSummaryWarmupTask constructs an asynq task for a summary warmup.
func NewSummaryWarmupTask(ttl time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(SummaryWarmupPayload{TTL: ttl})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskModerationSummaryWarmup, data), nil
}

// SummaryCounter is the slice of the moderation service the warmup job needs.
type SummaryCounter interface {
	SummaryCounts(ctx context.Context) (moderation.Summary, error)
}

// SummaryWarmupJob recomputes the dashboard summary and stores a copy in
// Redis. The admin dashboard itself always computes live counts; the cached
// copy serves read-heavy surfaces like the public stats widget.
type SummaryWarmupJob struct {
	Counter SummaryCounter
	Cache   *redis.Client
	Logger  *slog.Logger
}

// NewSummaryWarmupJob wires dependencies for the warmup handler.
func NewSummaryWarmupJob(counter SummaryCounter, cache *redis.Client, logger *slog.Logger) *SummaryWarmupJob {
	return &SummaryWarmupJob{Counter: counter, Cache: cache, Logger: logger}
}

// Handle processes summary warmup tasks.
func (j *SummaryWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Counter == nil || j.Cache == nil {
		return errors.New("summary warmup: handler not configured")
	}
	var payload SummaryWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.TTL <= 0 {
		payload.TTL = 10 * time.Minute
	}

	summary, err := j.Counter.SummaryCounts(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	if err := j.Cache.Set(ctx, SummaryCacheKey, data, payload.TTL).Err(); err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("moderation summary warmed",
			slog.Int("users", summary.Users),
			slog.Int("reported_photos", summary.ReportedPhotos),
			slog.Int("reported_comments", summary.ReportedComments))
	}
	return nil
}
