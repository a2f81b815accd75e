package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Sync(ctx context.Context, trigger string) (*SyncResult, error)
	Search(ctx context.Context, query string, limit int) ([]Part, error)
	GetByCode(ctx context.Context, code string) (*Part, error)
	Stats(ctx context.Context) (*Stats, error)
}

// SyncResult summarizes one completed refresh.
type SyncResult struct {
	Status      string `json:"status"`
	PartsCount  int    `json:"parts_count"`
	SkippedRows int    `json:"skipped_rows"`
	Message     string `json:"message,omitempty"`
}

// Stats describes the cache contents and the most recent sync.
type Stats struct {
	PartCount       int64      `json:"part_count"`
	LastSyncAt      *time.Time `json:"last_sync_timestamp,omitempty"`
	LastSyncStatus  string     `json:"last_sync_status,omitempty"`
	LastSyncMessage string     `json:"last_sync_message,omitempty"`
	StoreSizeBytes  int64      `json:"store_size_bytes"`
}

var (
	ErrNotFound       = errors.New("part_not_found")
	ErrSyncInProgress = errors.New("sync_in_progress")
)
