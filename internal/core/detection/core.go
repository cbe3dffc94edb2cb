package detection

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ixugo/goddd/pkg/reason"
)

// DefaultRecentLimit 看板默认展示的记录数
const DefaultRecentLimit = 20

// ErrStoreUnavailable 存储未连接或已关闭
var ErrStoreUnavailable = errors.New("detection store unavailable")

// Storer data persistence
type Storer interface {
	// FindRecent 按 id 倒序返回最多 limit 条，无法借出连接时返回 ErrStoreUnavailable
	FindRecent(ctx context.Context, limit int) ([]DetectionEvent, error)
}

// Core business domain
type Core struct {
	store Storer
	limit int
	log   *slog.Logger
}

type Option func(*Core)

// WithRecentLimit 未指定条数时使用的默认值
func WithRecentLimit(limit int) Option {
	return func(c *Core) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Core) {
		c.log = log
	}
}

// NewCore create business domain
func NewCore(store Storer, opts ...Option) Core {
	c := Core{store: store, limit: DefaultRecentLimit, log: slog.Default()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// GetRecent 最新的检测记录，最新在前
// 存储不可用返回空切片，不视为错误
func (c Core) GetRecent(ctx context.Context, limit int) ([]DetectionEvent, error) {
	if limit <= 0 {
		limit = c.limit
	}
	if c.store == nil {
		return []DetectionEvent{}, nil
	}

	out, err := c.store.FindRecent(ctx, limit)
	if errors.Is(err, ErrStoreUnavailable) {
		c.log.DebugContext(ctx, "store unavailable, empty detections")
		return []DetectionEvent{}, nil
	}
	if err != nil {
		return nil, reason.ErrDB.Withf(`FindRecent limit[%d] err[%s]`, limit, err.Error())
	}
	if out == nil {
		out = []DetectionEvent{}
	}
	return out, nil
}
