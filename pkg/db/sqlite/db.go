package sqlite

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// NewSQLite 打开 SQLite 数据库文件，path 为 ":memory:" 时使用内存库
func NewSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite 同一时刻只允许一个写者
	db.SetMaxOpenConns(1)
	if _, err = db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
