package api

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/gowvp/lookout/internal/conf"
	"github.com/gowvp/lookout/internal/core/dashboard"
	"github.com/gowvp/lookout/internal/core/detection"
	"github.com/gowvp/lookout/internal/core/detection/store/detectiondb"
	"github.com/gowvp/lookout/internal/core/media"
	"github.com/gowvp/lookout/internal/data"
	"github.com/ixugo/goddd/pkg/system"
)

var ProviderSet = wire.NewSet(
	wire.Struct(new(Usecase), "*"),
	NewHTTPHandler,
	NewDetectionCore, NewDetectionAPI,
	NewMediaCore, NewMediaAPI,
	NewDashboardRenderer, NewDashboardAPI,
)

type Usecase struct {
	Conf *conf.Bootstrap
	Pool *data.Pool

	DetectionAPI DetectionAPI
	MediaAPI     MediaAPI
	DashboardAPI DashboardAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	if !uc.Conf.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	g.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, "not found")
	})
	setupRouter(g, uc)
	return g
}

// NewDetectionCore 检测记录只读查询
func NewDetectionCore(pool *data.Pool, bc *conf.Bootstrap, log *slog.Logger) detection.Core {
	return detection.NewCore(
		detectiondb.NewDB(pool),
		detection.WithRecentLimit(bc.Detection.RecentLimit),
		detection.WithLogger(log.With("component", "detection")),
	)
}

// NewMediaCore 相对目录以程序工作目录为准
func NewMediaCore(bc *conf.Bootstrap, log *slog.Logger) media.Core {
	cfg := bc.Media
	cfg.FramesDir = absPath(cfg.FramesDir)
	cfg.HLSDir = absPath(cfg.HLSDir)
	return media.NewCore(&cfg, log)
}

// NewDashboardRenderer 模板错误不阻止启动，请求时返回 500
func NewDashboardRenderer(bc *conf.Bootstrap, log *slog.Logger) *dashboard.Renderer {
	cfg := bc.Dashboard
	cfg.TemplateDir = absPath(cfg.TemplateDir)
	r := dashboard.NewRenderer(&cfg)
	if err := r.Err(); err != nil {
		log.Warn("dashboard template unavailable", "err", err)
	}
	return r
}

func absPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(system.Getwd(), p)
}
