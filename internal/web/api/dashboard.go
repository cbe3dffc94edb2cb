package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/lookout/internal/conf"
	"github.com/gowvp/lookout/internal/core/dashboard"
)

type DashboardAPI struct {
	renderer *dashboard.Renderer
	page     dashboard.PageData
	log      *slog.Logger
}

func NewDashboardAPI(renderer *dashboard.Renderer, bc *conf.Bootstrap, log *slog.Logger) DashboardAPI {
	return DashboardAPI{
		renderer: renderer,
		page: dashboard.PageData{
			Title:           bc.Dashboard.Title,
			Version:         bc.BuildVersion,
			DetectionsURL:   "/detections",
			ImagesPrefix:    "/images",
			HLSPrefix:       "/hls",
			PlaylistURL:     "/hls/" + bc.Media.Playlist,
			StreamStatusURL: "/streams/status",
			RefreshInterval: bc.Dashboard.RefreshInterval.Duration(),
		},
		log: log.With("api", "dashboard"),
	}
}

func RegisterDashboard(g gin.IRouter, api DashboardAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/", handler...)
	group.GET("", api.index)
}

func (a DashboardAPI) index(c *gin.Context) {
	var buf bytes.Buffer
	if err := a.renderer.Render(&buf, a.page); err != nil {
		a.log.ErrorContext(c.Request.Context(), "render dashboard", "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
