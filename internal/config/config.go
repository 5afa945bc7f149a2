// Package config 解析 YAML 配置文件
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ecodeclub/ewatch/internal/task"
	"github.com/ecodeclub/ewatch/pkg/db/mysql"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	LogLevel string  `yaml:"log_level"`
	Storage  Storage `yaml:"storage"`
	// SweepInterval 检查 expireAt 的间隔
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// Tasks 启动时的任务种子，存储里已经有的同名任务以存储为准
	Tasks []task.Config `yaml:"tasks"`
}

type Storage struct {
	Driver string             `yaml:"driver"`
	MySQL  mysql.MySQLOptions `yaml:"mysql"`
	SQLite string             `yaml:"sqlite"`
	// SaveTimeout 单次保存的超时时间
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

func (c *Config) defaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMySQL
	}
	if c.Storage.SQLite == "" {
		c.Storage.SQLite = "ewatch.db"
	}
	if c.Storage.SaveTimeout <= 0 {
		c.Storage.SaveTimeout = 5 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
}

// Level 日志级别
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("ewatch: 非法日志级别 %q: %w", c.LogLevel, err)
	}
	return l, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("ewatch: 不支持的存储驱动 %s", c.Storage.Driver)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Tasks))
	for _, t := range c.Tasks {
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("ewatch: 重复的任务名称 %s", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("ewatch: 解析配置失败: %w", err)
	}
	c.defaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ewatch: 读取配置失败: %w", err)
	}
	return Parse(data)
}
