// Package media 只读地提供流水线产出的截图与 HLS 分片
package media

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gowvp/lookout/internal/conf"
)

var (
	// ErrNotFound 文件不存在或是目录
	ErrNotFound = errors.New("asset not found")
	// ErrForbidden 请求路径试图离开根目录
	ErrForbidden = errors.New("asset outside of root")
	// ErrUnknownNamespace 未注册的命名空间
	ErrUnknownNamespace = errors.New("unknown asset namespace")
)

// Namespace 对外暴露的静态目录
type Namespace string

const (
	NamespaceImages Namespace = "images"
	NamespaceHLS    Namespace = "hls"
)

const (
	ContentTypeM3U8    = "application/vnd.apple.mpegurl"
	ContentTypeTS      = "video/mp2t"
	contentTypeDefault = "application/octet-stream"
)

var contentTypes = map[string]string{
	".m3u8": ContentTypeM3U8,
	".ts":   ContentTypeTS,
	".m4s":  "video/iso.segment",
	".mp4":  "video/mp4",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ContentType 按扩展名判断，流水线的文件名总带扩展名
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if v, ok := contentTypes[ext]; ok {
		return v
	}
	if v := mime.TypeByExtension(ext); v != "" {
		return v
	}
	return contentTypeDefault
}

// Asset 已打开的文件，调用方负责 Close
type Asset struct {
	*os.File
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// IsPlaylist 播放列表会被流水线持续改写，不应缓存
func (a *Asset) IsPlaylist() bool {
	return a.ContentType == ContentTypeM3U8
}

// Core business domain
type Core struct {
	roots    map[Namespace]string
	playlist string
	log      *slog.Logger
}

// NewCore create business domain
func NewCore(cfg *conf.Media, log *slog.Logger) Core {
	playlist := cfg.Playlist
	if playlist == "" {
		playlist = "stream.m3u8"
	}
	return Core{
		roots: map[Namespace]string{
			NamespaceImages: cfg.FramesDir,
			NamespaceHLS:    cfg.HLSDir,
		},
		playlist: playlist,
		log:      log.With("component", "media"),
	}
}

// Root 命名空间对应的根目录
func (c Core) Root(ns Namespace) (string, bool) {
	root, ok := c.roots[ns]
	return root, ok
}

// Playlist 直播播放列表文件名
func (c Core) Playlist() string {
	return c.playlist
}

// Open 打开 root 下的 name
// 绝对路径、.. 段、经符号链接离开根目录的请求均返回 ErrForbidden
func (c Core) Open(ns Namespace, name string) (*Asset, error) {
	root, ok := c.roots[ns]
	if !ok {
		return nil, ErrUnknownNamespace
	}
	f, err := openInRoot(root, name)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			c.log.Warn("rejected path outside of root", "namespace", ns, "path", name)
		}
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ErrNotFound
	}
	if fi.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return &Asset{
		File:        f,
		Name:        fi.Name(),
		Size:        fi.Size(),
		ModTime:     fi.ModTime(),
		ContentType: ContentType(fi.Name()),
	}, nil
}

// openInRoot 校验与打开在同一步完成，符号链接无法在两者之间被替换
func openInRoot(root, name string) (*os.File, error) {
	name = filepath.ToSlash(name)
	if name == "" || strings.ContainsRune(name, 0) || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return nil, ErrForbidden
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return nil, ErrForbidden
		}
	}

	f, err := os.OpenInRoot(root, filepath.FromSlash(name))
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.ENOTDIR):
		return nil, ErrNotFound
	default:
		// os.Root 拒绝离开根目录的符号链接
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
}
