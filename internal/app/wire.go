//go:build wireinject

package app

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/gowvp/lookout/internal/conf"
	"github.com/gowvp/lookout/internal/data"
	"github.com/gowvp/lookout/internal/web/api"
)

func wireApp(bc *conf.Bootstrap, log *slog.Logger) (*App, error) {
	panic(wire.Build(data.ProviderSet, api.ProviderSet, NewApp))
}
