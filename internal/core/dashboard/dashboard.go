// Package dashboard 渲染检测看板页面
package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"time"

	"github.com/gowvp/lookout/internal/conf"
)

// ErrTemplate 模板缺失、解析或执行失败
var ErrTemplate = errors.New("dashboard template")

// PageData 页面需要的链接与参数
type PageData struct {
	Title           string
	Version         string
	DetectionsURL   string
	ImagesPrefix    string
	HLSPrefix       string
	PlaylistURL     string
	StreamStatusURL string
	RefreshInterval time.Duration
}

// RefreshMillis 供前端 setInterval 使用
func (d PageData) RefreshMillis() int64 {
	return d.RefreshInterval.Milliseconds()
}

// Renderer 启动时解析模板，解析失败会在每次渲染时返回
type Renderer struct {
	tmpl *template.Template
	err  error
	path string
}

// NewRenderer 从配置的模板目录加载
func NewRenderer(cfg *conf.Dashboard) *Renderer {
	name := cfg.Template
	if name == "" {
		name = "index.html"
	}
	return NewRendererFromFile(filepath.Join(cfg.TemplateDir, name))
}

func NewRendererFromFile(path string) *Renderer {
	r := Renderer{path: path}
	r.tmpl, r.err = template.ParseFiles(path)
	if r.err != nil {
		r.err = fmt.Errorf("%w: %w", ErrTemplate, r.err)
	}
	return &r
}

// Err 模板加载错误
func (r *Renderer) Err() error {
	return r.err
}

// Render 先完整渲染到缓冲区，失败时不会写出半个页面
func (r *Renderer) Render(w io.Writer, data PageData) error {
	if r.err != nil {
		return r.err
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("%w: execute %s: %w", ErrTemplate, filepath.Base(r.path), err)
	}
	_, err := buf.WriteTo(w)
	return err
}
