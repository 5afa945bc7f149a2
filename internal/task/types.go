package task

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type State string

const (
	StateActive  State = "ACTIVE"
	StateStopped State = "STOPPED"
	StateExpired State = "EXPIRED"
)

func (s State) Valid() bool {
	switch s {
	case StateActive, StateStopped, StateExpired:
		return true
	}
	return false
}

// relativeEpochLimit 小于这个值的 epoch 视为相对当前时间的秒数
const relativeEpochLimit = 1_000_000

func normalizeEpoch(v, now int64) int64 {
	if v != 0 && v < relativeEpochLimit {
		return now + v
	}
	return v
}

// Cron 任务的调度配置，要么是 cron 表达式（循环），要么是 epoch 秒（一次性）
// 数值 0 与未配置等价，不表示"立即执行"
type Cron struct {
	Expr string
	At   int64
}

// ParseCron 纯数字按 epoch 处理，其余按 cron 表达式处理
func ParseCron(s string) Cron {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Cron{At: v}
	}
	return Cron{Expr: s}
}

func (c Cron) IsZero() bool {
	return c.Expr == "" && c.At == 0
}

// IsOnce 是否是一次性调度
func (c Cron) IsOnce() bool {
	return c.Expr == "" && c.At != 0
}

func (c Cron) String() string {
	if c.Expr != "" {
		return c.Expr
	}
	if c.At != 0 {
		return strconv.FormatInt(c.At, 10)
	}
	return ""
}

func (c Cron) MarshalJSON() ([]byte, error) {
	switch {
	case c.Expr != "":
		return json.Marshal(c.Expr)
	case c.At != 0:
		return json.Marshal(c.At)
	}
	return []byte("null"), nil
}

func (c *Cron) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*c = Cron{}
	case float64:
		*c = Cron{At: int64(val)}
	case string:
		*c = ParseCron(val)
	default:
		return fmt.Errorf("ewatch: cron 只能是字符串或数字: %s", data)
	}
	return nil
}

func (c Cron) MarshalYAML() (any, error) {
	switch {
	case c.Expr != "":
		return c.Expr, nil
	case c.At != 0:
		return c.At, nil
	}
	return nil, nil
}

func (c *Cron) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*c = Cron{}
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("ewatch: cron 只能是字符串或数字, line %d", value.Line)
	}
	*c = ParseCron(value.Value)
	return nil
}

// Counts 运行统计
type Counts struct {
	Run  int64 `json:"run" yaml:"run"`
	Err  int64 `json:"err" yaml:"err"`
	Succ int64 `json:"succ" yaml:"succ"`
}

// Last 最近一次运行的结果，从未运行过时两个字段都是 nil
type Last struct {
	Succ *bool  `json:"succ" yaml:"succ"`
	Date *int64 `json:"date" yaml:"date"`
}

func (l Last) clone() Last {
	var res Last
	if l.Succ != nil {
		succ := *l.Succ
		res.Succ = &succ
	}
	if l.Date != nil {
		date := *l.Date
		res.Date = &date
	}
	return res
}

// Config 任务的配置记录，也是任务对外的序列化形式
// 把 Snapshot 的结果重新交给 New 可以还原出等价的任务
type Config struct {
	Name             string   `json:"name" yaml:"name"`
	State            State    `json:"state" yaml:"state"`
	URL              string   `json:"url" yaml:"url"`
	Callback         string   `json:"callback" yaml:"callback"`
	Timeout          int      `json:"timeout" yaml:"timeout"` // 以秒为单位 0 表示不设置
	Hash             string   `json:"hash" yaml:"hash"`
	URLTemplate      string   `json:"urlTemplate" yaml:"urlTemplate"`
	CallbackTemplate string   `json:"callbackTemplate" yaml:"callbackTemplate"`
	Patches          []string `json:"patches" yaml:"patches"`
	Cron             Cron     `json:"cron" yaml:"cron"`
	ExpireAt         int64    `json:"expireAt" yaml:"expireAt"`
	Created          int64    `json:"created" yaml:"created"`
	Updated          int64    `json:"updated" yaml:"updated"`
	Running          bool     `json:"_running" yaml:"-"`
	Counts           Counts   `json:"_counts" yaml:"_counts"`
	Last             Last     `json:"_last" yaml:"_last"`
}

// Outcome 一次 Run 的结果
type Outcome int

const (
	// OutcomeRejected 已经有一次运行在进行中，本次没有启动
	OutcomeRejected Outcome = iota
	// OutcomeUnchanged 内容没有变化
	OutcomeUnchanged
	// OutcomeChanged 内容变化并且已经记录
	OutcomeChanged
	// OutcomeFailed 抓取或回调失败
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeChanged:
		return "changed"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}
