package sqlstore

// TaskInfo ewatch_task 表的一行
// payload 是任务完整的 JSON 序列化形式，其余列用于查询
type TaskInfo struct {
	Name    string
	State   string
	URL     string
	Payload string
	BaseColumns
}

type BaseColumns struct {
	CreateTime int64
	UpdateTime int64
}

const schema = "CREATE TABLE IF NOT EXISTS `ewatch_task` (" +
	"`name` VARCHAR(255) NOT NULL PRIMARY KEY," +
	"`state` VARCHAR(16) NOT NULL," +
	"`url` TEXT NOT NULL," +
	"`payload` TEXT NOT NULL," +
	"`create_time` BIGINT NOT NULL," +
	"`update_time` BIGINT NOT NULL)"
