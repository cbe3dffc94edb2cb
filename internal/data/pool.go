package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gowvp/lookout/internal/conf"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrStoreUnavailable 连接池未建立或已关闭
var ErrStoreUnavailable = errors.New("store unavailable")

// State 连接池状态
type State int

const (
	StateAbsent   State = iota // 尚未初始化
	StateReady                 // 可借出连接
	StateDegraded              // 初始化失败，服务降级运行
	StateClosed                // 已关闭
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	case StateClosed:
		return "closed"
	default:
		return "absent"
	}
}

// Outcome 初始化结果，降级时 Cause 记录原因
type Outcome struct {
	State State
	Cause error
}

// Stats 连接池与租约计数
type Stats struct {
	State        string `json:"state"`
	Cause        string `json:"cause,omitempty"`
	MaxOpen      int    `json:"max_open"`
	Open         int    `json:"open"`
	InUse        int    `json:"in_use"`
	Idle         int    `json:"idle"`
	WaitCount    int64  `json:"wait_count"`
	WaitDuration string `json:"wait_duration"`
	Leases       int64  `json:"leases"`        // 当前借出
	LeasesTotal  int64  `json:"leases_total"`  // 累计借出
	LeaseFailure int64  `json:"lease_failure"` // 借出或查询失败
}

// Pool 检测事件存储的有界连接池
// 仅由 app 生命周期打开和关闭，业务侧只能通过 Acquire 借用连接
type Pool struct {
	conf *conf.Database
	log  *slog.Logger

	mu       sync.RWMutex
	db       *gorm.DB
	outcome  Outcome
	closing  bool
	inflight sync.WaitGroup

	closeOnce sync.Once
	closeErr  error

	leases      atomic.Int64
	leasesTotal atomic.Int64
	failures    atomic.Int64
}

// NewPool 创建未打开的连接池
func NewPool(bc *conf.Bootstrap, log *slog.Logger) *Pool {
	return &Pool{
		conf: &bc.Data.Database,
		log:  log.With("component", "pool"),
	}
}

// Open 按配置建立连接，失败时返回降级结果而非错误
func (p *Pool) Open(ctx context.Context) Outcome {
	dial, isSQLite := getDialector(p.conf.DSN())
	if isSQLite {
		p.conf.MaxIdleConns = 1
		p.conf.MaxOpenConns = 1
	}
	return p.OpenWith(ctx, dial)
}

// OpenWith 使用指定 dialector 建立连接
func (p *Pool) OpenWith(ctx context.Context, dial gorm.Dialector) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.outcome.State != StateAbsent {
		return p.outcome
	}

	db, err := p.open(ctx, dial)
	if err != nil {
		p.outcome = Outcome{State: StateDegraded, Cause: err}
		p.log.WarnContext(ctx, "store unavailable, serving without detections", "dsn", p.conf.RedactedDSN(), "err", err)
		return p.outcome
	}

	p.db = db
	p.outcome = Outcome{State: StateReady}
	p.log.InfoContext(ctx, "store connected", "dialect", dial.Name(), "max_open_conns", p.conf.MaxOpenConns)
	return p.outcome
}

func (p *Pool) open(ctx context.Context, dial gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dial, &gorm.Config{
		DisableAutomaticPing: true,
		Logger: logger.New(slogWriter{log: p.log}, logger.Config{
			SlowThreshold:             p.conf.SlowThreshold.Duration(),
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	sqlDB.SetMaxOpenConns(int(p.conf.MaxOpenConns))
	sqlDB.SetMaxIdleConns(int(p.conf.MaxIdleConns))
	sqlDB.SetConnMaxLifetime(p.conf.ConnMaxLifetime.Duration())

	pingCtx := ctx
	if t := p.conf.ConnectTimeout.Duration(); t > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// Outcome 当前状态
func (p *Pool) Outcome() Outcome {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.outcome
}

// Available 是否可以借出连接
func (p *Pool) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db != nil && !p.closing
}

// Acquire 借出一个独占连接执行 fn，任何退出路径都会归还连接
// 借出与查询共用 AcquireTimeout 期限，池耗尽时排队直到超时
func (p *Pool) Acquire(ctx context.Context, fn func(tx *gorm.DB) error) error {
	p.mu.RLock()
	if p.db == nil || p.closing {
		p.mu.RUnlock()
		return ErrStoreUnavailable
	}
	db := p.db
	p.inflight.Add(1)
	p.mu.RUnlock()
	defer p.inflight.Done()

	if t := p.conf.AcquireTimeout.Duration(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	p.leases.Add(1)
	p.leasesTotal.Add(1)
	defer p.leases.Add(-1)

	err := db.WithContext(ctx).Connection(fn)
	if err != nil {
		p.failures.Add(1)
		return fmt.Errorf("lease: %w", err)
	}
	return nil
}

// Close 停止借出，等待在途租约归还后关闭全部连接
// 可重复调用，未打开时直接返回
func (p *Pool) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closing = true
		db := p.db
		p.mu.Unlock()

		if db == nil {
			p.setClosed()
			return
		}

		drained := make(chan struct{})
		go func() {
			p.inflight.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-ctx.Done():
			p.log.WarnContext(ctx, "closing store with leases still out", "leases", p.leases.Load())
		}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		p.closeErr = err
		p.setClosed()
		p.log.InfoContext(ctx, "store closed", "err", err)
	})
	return p.closeErr
}

func (p *Pool) setClosed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.db = nil
	if p.outcome.State == StateReady || p.outcome.State == StateAbsent {
		p.outcome = Outcome{State: StateClosed}
	}
}

// Stats 连接池快照
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	db, outcome := p.db, p.outcome
	p.mu.RUnlock()

	s := Stats{
		State:        outcome.State.String(),
		Leases:       p.leases.Load(),
		LeasesTotal:  p.leasesTotal.Load(),
		LeaseFailure: p.failures.Load(),
	}
	if outcome.Cause != nil {
		s.Cause = outcome.Cause.Error()
	}
	if db == nil {
		return s
	}
	if sqlDB, err := db.DB(); err == nil {
		st := sqlDB.Stats()
		s.MaxOpen = st.MaxOpenConnections
		s.Open = st.OpenConnections
		s.InUse = st.InUse
		s.Idle = st.Idle
		s.WaitCount = st.WaitCount
		s.WaitDuration = st.WaitDuration.Round(time.Millisecond).String()
	}
	return s
}

// slogWriter 将 gorm 日志转到 slog
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Warn(fmt.Sprintf(format, args...))
}
