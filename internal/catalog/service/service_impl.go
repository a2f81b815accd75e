package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/partdesk/internal/catalog/domain"
	"github.com/smallbiznis/partdesk/internal/clock"
	"github.com/smallbiznis/partdesk/internal/config"
	obsmetrics "github.com/smallbiznis/partdesk/internal/observability/metrics"
	tabledomain "github.com/smallbiznis/partdesk/internal/tablestore/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Column titles of the remote parts table.
const (
	colProductCode     = "Product Code"
	colDescription     = "Description"
	colSalesPrice      = "Sales Price"
	colQuantityInStock = "Quantity In Stock"
	colFreeStock       = "Free Stock"
	colCategory        = "Category"
	colSupplier        = "Supplier"
	colInactive        = "Inactive"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    catalogdomain.Repository
	Gateway tabledomain.Gateway
	Clock   clock.Clock
	Cfg     config.Config
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    catalogdomain.Repository
	gateway tabledomain.Gateway
	clock   clock.Clock
	cfg     config.Config
	metrics *obsmetrics.Metrics

	syncing atomic.Bool
}

func New(p Params) catalogdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("catalog.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		gateway: p.Gateway,
		clock:   p.Clock,
		cfg:     p.Cfg,
		metrics: p.Metrics,
	}
}

// Sync pulls the full remote parts table and replaces the local mirror.
// Only one sync runs at a time; a second caller gets ErrSyncInProgress.
func (s *Service) Sync(ctx context.Context, trigger string) (*catalogdomain.SyncResult, error) {
	if !s.syncing.CompareAndSwap(false, true) {
		return nil, catalogdomain.ErrSyncInProgress
	}
	defer s.syncing.Store(false)

	rows, err := s.gateway.GetRows(ctx, s.cfg.Sheets.PartsSheet)
	if err != nil {
		s.recordSyncLog(ctx, trigger, 0, catalogdomain.SyncStatusFailed, err.Error())
		s.metrics.RecordCatalogSync(ctx, trigger, catalogdomain.SyncStatusFailed)
		return nil, err
	}

	parts := make([]catalogdomain.Part, 0, len(rows))
	skipped := 0
	now := s.clock.Now()
	for _, row := range rows {
		code := strings.TrimSpace(row.Cell(colProductCode))
		if code == "" {
			skipped++
			continue
		}
		parts = append(parts, catalogdomain.Part{
			ID:              s.genID.Generate(),
			ProductCode:     code,
			Description:     strings.TrimSpace(row.Cell(colDescription)),
			SalesPrice:      ParsePrice(row.Cell(colSalesPrice)),
			QuantityInStock: parseQuantity(row.Cell(colQuantityInStock)),
			FreeStock:       parseQuantity(row.Cell(colFreeStock)),
			Category:        strings.TrimSpace(row.Cell(colCategory)),
			Supplier:        strings.TrimSpace(row.Cell(colSupplier)),
			Inactive:        parseBool(row.Cell(colInactive)),
			Position:        len(parts),
			SourceRowID:     row.ID,
			CreatedAt:       now,
		})
	}

	if err := s.repo.ReplaceAll(ctx, s.db, parts); err != nil {
		s.recordSyncLog(ctx, trigger, 0, catalogdomain.SyncStatusFailed, err.Error())
		s.metrics.RecordCatalogSync(ctx, trigger, catalogdomain.SyncStatusFailed)
		return nil, err
	}

	message := fmt.Sprintf("synced %d parts", len(parts))
	if skipped > 0 {
		message = fmt.Sprintf("synced %d parts, skipped %d rows", len(parts), skipped)
	}
	s.recordSyncLog(ctx, trigger, len(parts), catalogdomain.SyncStatusSuccess, message)
	s.metrics.RecordCatalogSync(ctx, trigger, catalogdomain.SyncStatusSuccess)

	s.log.Info("catalog sync complete",
		zap.String("trigger", trigger),
		zap.Int("parts", len(parts)),
		zap.Int("skipped", skipped),
	)

	return &catalogdomain.SyncResult{
		Status:      catalogdomain.SyncStatusSuccess,
		PartsCount:  len(parts),
		SkippedRows: skipped,
		Message:     message,
	}, nil
}

// Search returns catalog matches for the query. Queries shorter than the
// configured minimum yield an empty result, not an error.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]catalogdomain.Part, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.cfg.Catalog.SearchMinimumChars {
		return []catalogdomain.Part{}, nil
	}

	max := s.cfg.Catalog.MaxSearchResults
	if limit <= 0 || limit > max {
		limit = max
	}

	parts, err := s.repo.Search(ctx, s.db, query, limit,
		s.cfg.Catalog.CaseSensitiveSearch, s.cfg.Catalog.InactivePartsVisible)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCatalogSearch(ctx, searchTier(parts, query))
	if parts == nil {
		parts = []catalogdomain.Part{}
	}
	return parts, nil
}

// GetByCode resolves an exact, case-insensitive product code.
func (s *Service) GetByCode(ctx context.Context, code string) (*catalogdomain.Part, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, catalogdomain.ErrNotFound
	}

	part, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return part, nil
}

// Stats reports cache size and last sync provenance.
func (s *Service) Stats(ctx context.Context) (*catalogdomain.Stats, error) {
	count, err := s.repo.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}

	stats := &catalogdomain.Stats{PartCount: count}

	last, err := s.repo.LastSyncLog(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if last != nil {
		ts := last.Timestamp
		stats.LastSyncAt = &ts
		stats.LastSyncStatus = last.Status
		stats.LastSyncMessage = last.Message
	}

	if s.cfg.DBType == "sqlite" && s.cfg.SQLitePath != "" {
		if info, statErr := os.Stat(s.cfg.SQLitePath); statErr == nil {
			stats.StoreSizeBytes = info.Size()
		}
	}

	return stats, nil
}

func (s *Service) recordSyncLog(ctx context.Context, trigger string, rowCount int, status, message string) {
	entry := &catalogdomain.SyncLog{
		ID:        s.genID.Generate(),
		Timestamp: s.clock.Now(),
		Trigger:   trigger,
		RowCount:  rowCount,
		Status:    status,
		Message:   message,
	}
	if err := s.repo.AppendSyncLog(ctx, s.db, entry); err != nil {
		s.log.Error("append sync log", zap.Error(err))
	}
}

// ParsePrice reads a spreadsheet price cell, tolerating currency symbols
// and thousands separators. Malformed values default to 0.
func ParsePrice(raw string) float64 {
	cleaned := strings.NewReplacer("€", "", "$", "", "£", "", ",", "").Replace(raw)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func parseQuantity(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// searchTier labels the best tier represented in the results, for metrics.
func searchTier(parts []catalogdomain.Part, query string) string {
	if len(parts) == 0 {
		return "none"
	}
	first := strings.ToLower(parts[0].ProductCode)
	lowered := strings.ToLower(query)
	switch {
	case first == lowered:
		return "exact_code"
	case strings.HasPrefix(first, lowered):
		return "code_prefix"
	case strings.Contains(strings.ToLower(parts[0].Description), lowered):
		return "description"
	default:
		return "other"
	}
}
