package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecodeclub/ewatch/internal/app"
	"github.com/ecodeclub/ewatch/internal/config"
	"github.com/ecodeclub/ewatch/internal/patch"
	"github.com/ecodeclub/ewatch/internal/storage/sqlstore"
	"github.com/ecodeclub/ewatch/pkg/db/mysql"
	"github.com/ecodeclub/ewatch/pkg/db/sqlite"
)

func main() {
	path := flag.String("config", "ewatch.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		slog.Error("配置加载失败", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.Storage)
	if err != nil {
		logger.Error("数据库连接失败", "driver", cfg.Storage.Driver, "error", err)
		return
	}
	defer db.Close()

	store := sqlstore.NewStorage(db)
	if err = store.Migrate(ctx); err != nil {
		logger.Error("建表失败", "error", err)
		return
	}
	a := app.New(store, patch.Default(), cfg.Storage.SaveTimeout, logger)
	if err = a.Load(ctx, cfg.Tasks); err != nil {
		logger.Error("任务加载失败", "error", err)
		return
	}
	logger.Info("ewatch 启动", "tasks", len(a.Tasks()))
	a.Start(ctx, cfg.SweepInterval)
	logger.Info("ewatch 退出")
}

func openDB(ctx context.Context, c config.Storage) (*sql.DB, error) {
	if c.Driver == config.DriverSQLite {
		return sqlite.NewSQLite(c.SQLite)
	}
	return mysql.NewMySQL(ctx, &c.MySQL)
}
