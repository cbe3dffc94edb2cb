package conf

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Bootstrap 服务启动配置
type Bootstrap struct {
	Server    Server    `toml:"server"`
	Data      Data      `toml:"data"`
	Media     Media     `toml:"media"`
	Dashboard Dashboard `toml:"dashboard"`
	Detection Detection `toml:"detection"`
	Log       Log       `toml:"log"`

	BuildVersion string `toml:"-"`
	ConfigPath   string `toml:"-"`
}

type Server struct {
	Debug bool       `toml:"debug" env:"DEBUG"`
	HTTP  ServerHTTP `toml:"http"`
}

type ServerHTTP struct {
	Host              string   `toml:"host" env:"HTTP_HOST"`
	Port              int      `toml:"port" env:"HTTP_PORT"`
	ReadHeaderTimeout Duration `toml:"read_header_timeout"`
	IdleTimeout       Duration `toml:"idle_timeout"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout"`
}

// Addr 监听地址
func (s ServerHTTP) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type Data struct {
	Database Database `toml:"database"`
}

// Database 检测事件存储，Dsn 非空时忽略 Host 等拆分字段
type Database struct {
	Dsn      string `toml:"dsn" env:"DATABASE_DSN"`
	Host     string `toml:"host" env:"DB_HOST"`
	Port     int    `toml:"port" env:"DB_PORT"`
	User     string `toml:"user" env:"POSTGRES_USER"`
	Password string `toml:"password" env:"POSTGRES_PASSWORD"`
	Name     string `toml:"name" env:"POSTGRES_DB"`
	SSLMode  string `toml:"sslmode" env:"DB_SSLMODE"`

	MaxOpenConns    int32    `toml:"max_open_conns" env:"DB_MAX_CONNS"`
	MaxIdleConns    int32    `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
	ConnectTimeout  Duration `toml:"connect_timeout"`
	AcquireTimeout  Duration `toml:"acquire_timeout"`
}

// DSN 返回连接串，未显式配置时按 postgres 拼接
func (d Database) DSN() string {
	if d.Dsn != "" {
		return d.Dsn
	}
	return d.postgresURL().String()
}

// RedactedDSN 用于日志输出，隐藏密码
func (d Database) RedactedDSN() string {
	if d.Dsn == "" {
		return d.postgresURL().Redacted()
	}
	u, err := url.Parse(d.Dsn)
	if err != nil || u.User == nil {
		return d.Dsn
	}
	return u.Redacted()
}

func (d Database) postgresURL() *url.URL {
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	if t := d.ConnectTimeout.Duration(); t > 0 {
		secs := max(int(t/time.Second), 1)
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	return &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: q.Encode(),
	}
}

// Media 流水线写入的两个只读目录
type Media struct {
	FramesDir string `toml:"frames_dir" env:"FRAMES_DIR"`
	HLSDir    string `toml:"hls_dir" env:"HLS_DIR"`
	Playlist  string `toml:"playlist" env:"HLS_PLAYLIST"`
}

type Dashboard struct {
	TemplateDir     string   `toml:"template_dir" env:"TEMPLATE_DIR"`
	Template        string   `toml:"template"`
	Title           string   `toml:"title"`
	RefreshInterval Duration `toml:"refresh_interval"`
}

type Detection struct {
	RecentLimit int `toml:"recent_limit"`
}

type Log struct {
	Level  string `toml:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"` // text | json
}

// DefaultConfig 默认配置，与视频流水线的默认值保持一致
func DefaultConfig() Bootstrap {
	return Bootstrap{
		Server: Server{
			HTTP: ServerHTTP{
				Host:              "0.0.0.0",
				Port:              9090,
				ReadHeaderTimeout: Duration(10 * time.Second),
				IdleTimeout:       Duration(2 * time.Minute),
				ShutdownTimeout:   Duration(10 * time.Second),
			},
		},
		Data: Data{
			Database: Database{
				Host:            "localhost",
				Port:            5432,
				User:            "admin",
				Password:        "password",
				Name:            "analytics_db",
				SSLMode:         "disable",
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: Duration(30 * time.Minute),
				SlowThreshold:   Duration(200 * time.Millisecond),
				ConnectTimeout:  Duration(5 * time.Second),
				AcquireTimeout:  Duration(3 * time.Second),
			},
		},
		Media: Media{
			FramesDir: "detected_frames",
			HLSDir:    "hls_output",
			Playlist:  "stream.m3u8",
		},
		Dashboard: Dashboard{
			TemplateDir:     "web/templates",
			Template:        "index.html",
			Title:           "Detection Dashboard",
			RefreshInterval: Duration(2 * time.Second),
		},
		Detection: Detection{
			RecentLimit: 20,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate 校验不能依赖默认值兜底的字段
func (b *Bootstrap) Validate() error {
	if b.Server.HTTP.Port < 0 || b.Server.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port out of range: %d", b.Server.HTTP.Port)
	}
	if b.Data.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("data.database.max_open_conns must be positive")
	}
	if b.Media.FramesDir == "" || b.Media.HLSDir == "" {
		return fmt.Errorf("media.frames_dir and media.hls_dir are required")
	}
	if b.Detection.RecentLimit <= 0 {
		b.Detection.RecentLimit = 20
	}
	return nil
}
