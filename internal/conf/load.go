package conf

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigPath 未指定 -conf 时读取的配置文件，不存在则使用默认值
const DefaultConfigPath = "configs/config.toml"

// SetupConfig 依次加载 默认值 -> toml 文件 -> .env -> 环境变量
// path 为空时使用 DefaultConfigPath 且允许文件缺失，显式指定的文件必须存在
func SetupConfig(path string) (*Bootstrap, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg := DefaultConfig()
	cfg.ConfigPath = path

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.NewDecoder(bytes.NewReader(b)).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteConfig 将配置写回 toml 文件
func WriteConfig(cfg *Bootstrap, path string) error {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
