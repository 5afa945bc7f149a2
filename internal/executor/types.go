package executor

import (
	"context"
	"net/http"
	"time"
)

// Response 一次请求的结果，Body 已经完整读出
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client 执行器，负责任务所有的出站请求
// 状态码不是 200 时同时返回 Response 和 *errs.StatusError
type Client interface {
	// Get 抓取被监听的资源，timeout 小于等于 0 表示不设置超时
	Get(ctx context.Context, url string, timeout time.Duration) (*Response, error)
	// Post 把内容投递给回调地址
	Post(ctx context.Context, url string, header http.Header, body []byte, timeout time.Duration) (*Response, error)
}
