// Package sqlstore 基于 database/sql 的任务存储
// 只使用 MySQL 与 SQLite 都支持的 SQL
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ecodeclub/ewatch/internal/errs"
	"github.com/ecodeclub/ewatch/internal/storage"
	"github.com/ecodeclub/ewatch/internal/task"
	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ storage.Storager = &Storage{}

type Storage struct {
	db *sql.DB
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Migrate 建表
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Storage) Get(ctx context.Context, name string) (task.Config, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT `payload` FROM `ewatch_task` WHERE `name` = ?", name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Config{}, errs.NewTaskNotFoundError(name)
	}
	if err != nil {
		return task.Config{}, errs.NewLoadTaskError(name, err)
	}
	return decode(name, payload)
}

func (s *Storage) List(ctx context.Context) ([]task.Config, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT `name`, `payload` FROM `ewatch_task` ORDER BY `name`")
	if err != nil {
		return nil, errs.NewLoadTaskError("*", err)
	}
	defer rows.Close()
	var res []task.Config
	for rows.Next() {
		var name, payload string
		if err = rows.Scan(&name, &payload); err != nil {
			return nil, errs.NewLoadTaskError("*", err)
		}
		cfg, err := decode(name, payload)
		if err != nil {
			return nil, err
		}
		res = append(res, cfg)
	}
	if err = rows.Err(); err != nil {
		return nil, errs.NewLoadTaskError("*", err)
	}
	return res, nil
}

func (s *Storage) Save(ctx context.Context, cfg task.Config) error {
	// 运行中的标记不落库，重新加载的任务总是从未运行开始
	cfg.Running = false
	payload, err := json.Marshal(cfg)
	if err != nil {
		return errs.NewSaveTaskError(cfg.Name, err)
	}
	info := TaskInfo{
		Name:    cfg.Name,
		State:   string(cfg.State),
		URL:     cfg.URL,
		Payload: string(payload),
		BaseColumns: BaseColumns{
			CreateTime: cfg.Created,
			UpdateTime: cfg.Updated,
		},
	}

	// 先插入，主键冲突说明已经存在，改为更新
	// 并发的首次保存里插入失败的一方会走到更新
	_, err = s.db.ExecContext(ctx, "INSERT INTO `ewatch_task` (`name`, `state`, `url`, `payload`, `create_time`, `update_time`) "+
		"VALUES (?, ?, ?, ?, ?, ?)", info.Name, info.State, info.URL, info.Payload, info.CreateTime, info.UpdateTime)
	if err == nil {
		return nil
	}
	if !isDuplicateKey(err) {
		return errs.NewSaveTaskError(cfg.Name, err)
	}
	_, err = s.db.ExecContext(ctx, "UPDATE `ewatch_task` SET `state` = ?, `url` = ?, `payload` = ?, `update_time` = ? "+
		"WHERE `name` = ?", info.State, info.URL, info.Payload, info.UpdateTime, info.Name)
	if err != nil {
		return errs.NewSaveTaskError(cfg.Name, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM `ewatch_task` WHERE `name` = ?", name)
	if err != nil {
		return errs.NewDeleteTaskError(name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.NewDeleteTaskError(name, err)
	}
	if n == 0 {
		return errs.NewTaskNotFoundError(name)
	}
	return nil
}

func decode(name, payload string) (task.Config, error) {
	var cfg task.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return task.Config{}, errs.NewLoadTaskError(name, err)
	}
	return cfg, nil
}

// mysqlErDupEntry MySQL 的 ER_DUP_ENTRY
const mysqlErDupEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlErDupEntry
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		// 扩展错误码的低 8 位是主错误码
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
