package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/lookout/internal/core/media"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

type MediaAPI struct {
	core media.Core
	log  *slog.Logger
}

func NewMediaAPI(core media.Core, log *slog.Logger) MediaAPI {
	return MediaAPI{core: core, log: log.With("api", "media")}
}

func RegisterMedia(g gin.IRouter, api MediaAPI, handler ...gin.HandlerFunc) {
	for _, ns := range []media.Namespace{media.NamespaceImages, media.NamespaceHLS} {
		group := g.Group("/"+string(ns), handler...)
		group.GET("/*path", api.serve(ns))
		group.HEAD("/*path", api.serve(ns))
	}
}

func RegisterStream(g gin.IRouter, api MediaAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/streams", handler...)
	group.GET("/status", web.WrapH(api.streamStatus))
}

// serve 原样输出文件字节，支持 Range
// 不存在与越界统一返回 404，不暴露目录结构
func (a MediaAPI) serve(ns media.Namespace) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimLeft(c.Param("path"), "/")
		asset, err := a.core.Open(ns, name)
		if err != nil {
			if !errors.Is(err, media.ErrNotFound) && !errors.Is(err, media.ErrForbidden) {
				a.log.ErrorContext(c.Request.Context(), "open asset", "namespace", ns, "path", name, "err", err)
			}
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		defer asset.Close()

		c.Header("Content-Type", asset.ContentType)
		if asset.IsPlaylist() {
			c.Header("Cache-Control", "no-cache")
		}
		http.ServeContent(c.Writer, c.Request, asset.Name, asset.ModTime, asset)
	}
}

// streamStatus 直播播放列表状态
func (a MediaAPI) streamStatus(_ *gin.Context, _ *struct{}) (*media.StreamStatus, error) {
	out, err := a.core.PlaylistStatus()
	if errors.Is(err, media.ErrNotFound) {
		return nil, reason.ErrNotFound.Withf(`playlist[%s] not found`, a.core.Playlist())
	}
	if err != nil {
		return nil, reason.ErrServer.SetMsg(err.Error())
	}
	return out, nil
}
