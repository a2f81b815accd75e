package providers

import (
	"github.com/smallbiznis/partdesk/internal/providers/email"
	"github.com/smallbiznis/partdesk/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
