package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gowvp/lookout/internal/core/media"
	"github.com/gowvp/lookout/internal/data"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/shirou/gopsutil/v4/disk"
)

var startRuntime = time.Now()

const requestIDKey = "request_id"

func setupRouter(r *gin.Engine, uc *Usecase) {
	r.Use(
		// 格式化输出到控制台，然后记录到日志
		gin.CustomRecovery(func(c *gin.Context, err any) {
			slog.ErrorContext(c.Request.Context(), "panic", "err", err, "request_id", c.GetString(requestIDKey), "stack", string(debug.Stack()))
			c.AbortWithStatus(http.StatusInternalServerError)
		}),
		requestID(),
		web.Logger(
			web.IgnoreMethod(http.MethodOptions),
			web.IgnoreMethod(http.MethodHead),
			web.IgnorePrefix("/images"), // 截图
			web.IgnorePrefix("/hls"),    // 直播分片，每 2 秒一次
			web.IgnorePrefix("/health"),
		),
	)

	// 看板可能部署在其它域名下
	r.Use(cors.New(cors.Config{
		AllowMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Accept", "Content-Length", "Content-Type", "Range", "Accept-Language",
			"Origin", "Referer", "User-Agent", "Accept-Encoding",
			"Cache-Control", "Pragma", "X-Requested-With", "X-Request-ID",
		},
		ExposeHeaders: []string{"Content-Length", "Content-Range", "Accept-Ranges", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
		AllowOriginFunc: func(_ string) bool {
			return true
		},
	}))

	// 分片与截图已是压缩格式，只压缩页面与 JSON
	compress := gzip.Gzip(gzip.DefaultCompression)

	r.GET("/health", compress, web.WrapH(uc.getHealth))
	RegisterDashboard(r, uc.DashboardAPI, compress)
	RegisterDetection(r, uc.DetectionAPI, compress)
	RegisterStream(r, uc.MediaAPI, compress)
	RegisterMedia(r, uc.MediaAPI)
}

// requestID 透传或生成 X-Request-ID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

type getHealthOutput struct {
	Version string       `json:"version"`
	StartAt time.Time    `json:"start_at"`
	Store   data.Stats   `json:"store"`
	Media   []mediaUsage `json:"media"`
}

type mediaUsage struct {
	Namespace   media.Namespace `json:"namespace"`
	Path        string          `json:"path"`
	Total       uint64          `json:"total"`
	Free        uint64          `json:"free"`
	UsedPercent float64         `json:"used_percent"`
	Err         string          `json:"err,omitempty"`
}

func (uc *Usecase) getHealth(c *gin.Context, _ *struct{}) (getHealthOutput, error) {
	out := getHealthOutput{
		Version: uc.Conf.BuildVersion,
		StartAt: startRuntime,
		Store:   uc.Pool.Stats(),
	}
	for _, ns := range []media.Namespace{media.NamespaceImages, media.NamespaceHLS} {
		root, _ := uc.MediaAPI.core.Root(ns)
		u := mediaUsage{Namespace: ns, Path: root}
		usage, err := disk.UsageWithContext(c.Request.Context(), root)
		if err != nil {
			u.Err = err.Error()
		} else {
			u.Total, u.Free, u.UsedPercent = usage.Total, usage.Free, usage.UsedPercent
		}
		out.Media = append(out.Media, u)
	}
	return out, nil
}
