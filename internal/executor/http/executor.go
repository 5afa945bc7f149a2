package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ecodeclub/ewatch/internal/errs"
	"github.com/ecodeclub/ewatch/internal/executor"
)

var _ executor.Client = &Executor{}

// DefaultMaxBytes 响应体的读取上限
const DefaultMaxBytes = 10 << 20

type Executor struct {
	client   *http.Client
	maxBytes int64
}

type Option func(e *Executor)

// WithMaxBytes 响应体的读取上限，超过上限的响应按失败处理
func WithMaxBytes(n int64) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

func NewExecutor(client *http.Client, opts ...Option) *Executor {
	if client == nil {
		client = &http.Client{}
	}
	e := &Executor{
		client:   client,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Get(ctx context.Context, url string, timeout time.Duration) (*executor.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ewatch: 构造请求失败: %w", err)
	}
	return e.do(ctx, req, timeout)
}

func (e *Executor) Post(ctx context.Context, url string, header http.Header, body []byte,
	timeout time.Duration) (*executor.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ewatch: 构造请求失败: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return e.do(ctx, req, timeout)
}

func (e *Executor) do(ctx context.Context, req *http.Request, timeout time.Duration) (*executor.Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := e.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	// 多读一个字节用来判断是否超过上限，截断的内容不能参与指纹计算
	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ewatch: 读取响应失败: %w", err)
	}
	if int64(len(body)) > e.maxBytes {
		return nil, errs.NewBodyTooLargeError(req.URL.String(), e.maxBytes)
	}
	res := &executor.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if resp.StatusCode != http.StatusOK {
		return res, errs.NewStatusError(resp.StatusCode)
	}
	return res, nil
}
