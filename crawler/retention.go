package crawler

import (
	"context"
	"log/slog"

	"github.com/use-agent/sitecrawl/store"
)

// RetentionJob trims the posts table down to the most recent KeepLatest
// rows, ordered by id. A KeepLatest of 0 disables trimming entirely.
type RetentionJob struct {
	posts      store.PostStore
	keepLatest int
}

// NewRetentionJob builds a RetentionJob that keeps at most keepLatest posts.
func NewRetentionJob(posts store.PostStore, keepLatest int) *RetentionJob {
	return &RetentionJob{posts: posts, keepLatest: keepLatest}
}

// Run deletes every post older than the KeepLatest-th most recent one.
func (j *RetentionJob) Run(ctx context.Context) {
	if j.keepLatest <= 0 {
		return
	}

	deleted, err := j.posts.DeleteBelowBoundary(ctx, j.keepLatest)
	if err != nil {
		slog.Error("retention: failed to trim posts", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("retention: trimmed old posts", "deleted", deleted, "keep_latest", j.keepLatest)
	}
}
