package tablestore

import (
	"context"
	"strings"

	"github.com/smallbiznis/partdesk/internal/config"
	"github.com/smallbiznis/partdesk/internal/tablestore/domain"
	"github.com/smallbiznis/partdesk/internal/tablestore/memory"
	"github.com/smallbiznis/partdesk/internal/tablestore/sheets"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("tablestore",
	fx.Provide(provideGateway),
)

// provideGateway selects the Sheets backend when a spreadsheet is
// configured and falls back to the in-memory store otherwise.
func provideGateway(cfg config.Config, log *zap.Logger) (domain.Gateway, error) {
	if strings.TrimSpace(cfg.Sheets.SpreadsheetID) == "" {
		log.Warn("no spreadsheet configured, using in-memory table store")
		return memory.New(), nil
	}
	return sheets.New(context.Background(), cfg.Sheets, log)
}
