package discount

import (
	"github.com/smallbiznis/partdesk/internal/discount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discount.service",
	fx.Provide(service.New),
)
