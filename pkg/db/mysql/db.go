package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLOptions struct {
	Host                  string        `yaml:"host"`
	Username              string        `yaml:"username"`
	Password              string        `yaml:"password"`
	Database              string        `yaml:"database"`
	MaxIdleConnections    int           `yaml:"max_idle_connections"`
	MaxOpenConnections    int           `yaml:"max_open_connections"`
	MaxConnectionLifeTime time.Duration `yaml:"max_connection_life_time"`
}

func (o *MySQLOptions) defaults() {
	if o.Host == "" {
		o.Host = "localhost:3306"
	}
	if o.Database == "" {
		o.Database = "ewatch"
	}
	if o.MaxOpenConnections <= 0 {
		o.MaxOpenConnections = 10
	}
	if o.MaxIdleConnections <= 0 {
		o.MaxIdleConnections = 2
	}
	if o.MaxConnectionLifeTime <= 0 {
		o.MaxConnectionLifeTime = time.Hour
	}
}

func (o *MySQLOptions) DSN() string {
	return fmt.Sprintf(`%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=%t&loc=%s`,
		o.Username,
		o.Password,
		o.Host,
		o.Database,
		true,
		"Local")
}

// NewMySQL 打开连接池并 ping 一次，opts 中未设置的字段会被填上默认值
func NewMySQL(ctx context.Context, opts *MySQLOptions) (*sql.DB, error) {
	opts.defaults()
	db, err := sql.Open("mysql", opts.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(opts.MaxOpenConnections)
	db.SetConnMaxLifetime(opts.MaxConnectionLifeTime)
	db.SetMaxIdleConns(opts.MaxIdleConnections)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ewatch: mysql 不可用 %s: %w", opts.Host, err)
	}
	return db, nil
}
