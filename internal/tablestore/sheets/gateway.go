package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/partdesk/internal/config"
	"github.com/smallbiznis/partdesk/internal/tablestore/domain"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Gateway talks to a Google Sheets spreadsheet where each sheet acts as a
// table. The first row of every sheet holds the column titles.
type Gateway struct {
	svc           *sheetsv4.Service
	log           *zap.Logger
	spreadsheetID string
	retryAttempts int
	retryDelay    time.Duration
}

// New builds a Sheets-backed gateway from service-account credentials.
func New(ctx context.Context, cfg config.SheetsConfig, log *zap.Logger) (*Gateway, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheetsv4.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 3
	}

	return &Gateway{
		svc:           svc,
		log:           log.Named("tablestore.sheets"),
		spreadsheetID: cfg.SpreadsheetID,
		retryAttempts: attempts,
		retryDelay:    time.Second,
	}, nil
}

// GetRows reads every data row of the sheet. Row IDs are 1-based sheet row
// numbers, stable between reads as long as rows are only appended.
func (g *Gateway) GetRows(ctx context.Context, table string) ([]domain.Row, error) {
	var resp *sheetsv4.ValueRange
	err := g.withRetry(ctx, "get_rows", table, func() error {
		var callErr error
		resp, callErr = g.svc.Spreadsheets.Values.Get(g.spreadsheetID, table).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Values) == 0 {
		return nil, nil
	}

	titles := cellStrings(resp.Values[0])
	rows := make([]domain.Row, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		values := cellStrings(raw)
		cells := make(map[string]string, len(titles))
		for col, title := range titles {
			if title == "" {
				continue
			}
			if col < len(values) {
				cells[title] = values[col]
			} else {
				cells[title] = ""
			}
		}
		rows = append(rows, domain.Row{ID: int64(i + 2), Cells: cells})
	}
	return rows, nil
}

// AddRow appends a row, placing values under their column titles.
func (g *Gateway) AddRow(ctx context.Context, table string, cells map[string]string) (domain.Row, error) {
	titles, err := g.headerRow(ctx, table)
	if err != nil {
		return domain.Row{}, err
	}

	values := make([]interface{}, len(titles))
	for col, title := range titles {
		values[col] = cells[title]
	}

	var resp *sheetsv4.AppendValuesResponse
	err = g.withRetry(ctx, "add_row", table, func() error {
		var callErr error
		resp, callErr = g.svc.Spreadsheets.Values.
			Append(g.spreadsheetID, table, &sheetsv4.ValueRange{Values: [][]interface{}{values}}).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return callErr
	})
	if err != nil {
		return domain.Row{}, err
	}

	row := domain.Row{Cells: cells}
	if resp != nil && resp.Updates != nil {
		row.ID = rowNumberFromRange(resp.Updates.UpdatedRange)
	}
	return row, nil
}

// UpdateRow overwrites the given cells of one row, leaving the rest intact.
func (g *Gateway) UpdateRow(ctx context.Context, table string, rowID int64, cells map[string]string) error {
	if rowID < 2 {
		return domain.ErrRowNotFound
	}

	titles, err := g.headerRow(ctx, table)
	if err != nil {
		return err
	}

	rowRange := fmt.Sprintf("%s!A%d:%s%d", table, rowID, columnLetter(len(titles)-1), rowID)

	var current *sheetsv4.ValueRange
	err = g.withRetry(ctx, "read_row", table, func() error {
		var callErr error
		current, callErr = g.svc.Spreadsheets.Values.Get(g.spreadsheetID, rowRange).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return err
	}
	if len(current.Values) == 0 {
		return domain.ErrRowNotFound
	}

	existing := cellStrings(current.Values[0])
	merged := make([]interface{}, len(titles))
	for col, title := range titles {
		if value, ok := cells[title]; ok {
			merged[col] = value
			continue
		}
		if col < len(existing) {
			merged[col] = existing[col]
		} else {
			merged[col] = ""
		}
	}

	return g.withRetry(ctx, "update_row", table, func() error {
		_, callErr := g.svc.Spreadsheets.Values.
			Update(g.spreadsheetID, rowRange, &sheetsv4.ValueRange{Values: [][]interface{}{merged}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return callErr
	})
}

func (g *Gateway) headerRow(ctx context.Context, table string) ([]string, error) {
	var resp *sheetsv4.ValueRange
	err := g.withRetry(ctx, "read_header", table, func() error {
		var callErr error
		resp, callErr = g.svc.Spreadsheets.Values.Get(g.spreadsheetID, table+"!1:1").Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", domain.ErrTableNotFound, table)
	}
	return cellStrings(resp.Values[0]), nil
}

// withRetry runs the call with linear backoff and wraps exhaustion in
// ErrRemoteUnavailable so callers can degrade instead of failing hard.
func (g *Gateway) withRetry(ctx context.Context, op, table string, call func() error) error {
	var lastErr error
	for attempt := 1; attempt <= g.retryAttempts; attempt++ {
		lastErr = call()
		if lastErr == nil {
			return nil
		}

		g.log.Warn("sheets call failed",
			zap.String("op", op),
			zap.String("table", table),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)

		if attempt == g.retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.retryDelay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteUnavailable, op, table, lastErr)
}

func cellStrings(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// columnLetter converts a zero-based column index to its A1 letter.
func columnLetter(index int) string {
	if index < 0 {
		return "A"
	}
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return letters
}

// rowNumberFromRange extracts the first row number from an A1 range such
// as "Parts!A12:E12".
func rowNumberFromRange(a1 string) int64 {
	idx := strings.Index(a1, "!")
	if idx >= 0 {
		a1 = a1[idx+1:]
	}
	var n int64
	seen := false
	for _, r := range a1 {
		if r >= '0' && r <= '9' {
			n = n*10 + int64(r-'0')
			seen = true
			continue
		}
		if seen {
			break
		}
	}
	return n
}
