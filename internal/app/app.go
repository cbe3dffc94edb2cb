// Package app 服务生命周期，持有连接池与 HTTP 监听
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gowvp/lookout/internal/conf"
	"github.com/gowvp/lookout/internal/data"
)

// ErrRunning 重复启动
var ErrRunning = errors.New("app already running")

// App 两种状态: 停止与运行
type App struct {
	conf    *conf.Bootstrap
	log     *slog.Logger
	pool    *data.Pool
	handler http.Handler

	mu      sync.Mutex
	server  *http.Server
	ln      net.Listener
	serveCh chan error
}

// NewApp 创建处于停止状态的服务
func NewApp(bc *conf.Bootstrap, log *slog.Logger, pool *data.Pool, handler http.Handler) *App {
	return &App{conf: bc, log: log, pool: pool, handler: handler}
}

// Start 打开连接池并开始监听
// 数据库不可用时仍然启动，端口占用时关闭连接池并返回错误
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return ErrRunning
	}

	if out := a.pool.Open(ctx); out.State != data.StateReady {
		a.log.WarnContext(ctx, "detections disabled", "state", out.State, "cause", out.Cause)
	}

	cfg := a.conf.Server.HTTP
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		_ = a.pool.Close(ctx)
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}

	a.ln = ln
	a.server = &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration(),
		IdleTimeout:       cfg.IdleTimeout.Duration(),
	}
	a.serveCh = make(chan error, 1)
	go func(srv *http.Server, ch chan error) {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		ch <- err
		close(ch)
	}(a.server, a.serveCh)

	a.log.InfoContext(ctx, "http server listening", "addr", ln.Addr().String(), "version", a.conf.BuildVersion)
	return nil
}

// Addr 实际监听地址，端口配置为 0 时用于获取随机端口
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return ""
	}
	return a.ln.Addr().String()
}

// Done 监听异常退出时返回错误
func (a *App) Done() <-chan error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.serveCh
}

// Stop 停止接收新请求，等待在途请求结束后关闭连接池
// 已停止时直接返回
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return nil
	}

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		_ = a.server.Close()
	}
	if err := <-a.serveCh; err != nil {
		errs = append(errs, fmt.Errorf("serve: %w", err))
	}
	if err := a.pool.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	a.server, a.ln, a.serveCh = nil, nil, nil
	a.log.InfoContext(ctx, "http server stopped")
	return errors.Join(errs...)
}
