package app

import (
	"log/slog"

	"github.com/gowvp/lookout/internal/conf"
)

// New 组装全部依赖，返回未启动的服务
func New(bc *conf.Bootstrap, log *slog.Logger) (*App, error) {
	return wireApp(bc, log)
}
