package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/lookout/internal/core/detection"
)

type DetectionAPI struct {
	core detection.Core
	log  *slog.Logger
}

func NewDetectionAPI(core detection.Core, log *slog.Logger) DetectionAPI {
	return DetectionAPI{core: core, log: log.With("api", "detections")}
}

func RegisterDetection(g gin.IRouter, api DetectionAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/detections", handler...)
	group.GET("", api.findRecent)
}

// findRecent 最新 20 条检测记录，始终返回 JSON 数组
// 存储不可用或查询失败时返回空数组，看板照常刷新
func (a DetectionAPI) findRecent(c *gin.Context) {
	items, err := a.core.GetRecent(c.Request.Context(), 0)
	if err != nil {
		a.log.ErrorContext(c.Request.Context(), "find recent detections", "request_id", c.GetString(requestIDKey), "err", err)
		items = []detection.DetectionEvent{}
	}
	c.JSON(http.StatusOK, items)
}
