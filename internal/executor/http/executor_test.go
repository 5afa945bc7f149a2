package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecodeclub/ewatch/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_Get(t *testing.T) {
	srv := httptest.NewServer(newTestMux())
	defer srv.Close()

	tests := []struct {
		name       string
		path       string
		timeout    time.Duration
		wantBody   string
		wantStatus int
	}{
		{
			name:     "ok",
			path:     "/ok",
			wantBody: `{"status":2}`,
		},
		{
			name:       "service 404",
			path:       "/404",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "service 500",
			path:       "/500",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:    "slow with timeout",
			path:    "/slow",
			timeout: 50 * time.Millisecond,
		},
	}
	e := NewExecutor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := e.Get(context.Background(), srv.URL+tt.path, tt.timeout)
			switch {
			case tt.wantStatus != 0:
				var se *errs.StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.wantStatus, se.Code)
				assert.Equal(t, tt.wantStatus, resp.StatusCode)
			case tt.timeout > 0:
				assert.Error(t, err)
				assert.Nil(t, resp)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(resp.Body))
				assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestExecutor_Post(t *testing.T) {
	var (
		gotBody   string
		gotHeader http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotHeader = r.Header.Clone()
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Content-Type", "text/plain")
	header.Set("Date", "Mon, 01 Jan 2024 00:00:00 GMT")
	resp, err := NewExecutor(srv.Client()).Post(context.Background(), srv.URL, header, []byte("hello"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", gotBody)
	assert.Equal(t, "text/plain", gotHeader.Get("Content-Type"))
	assert.Equal(t, "Mon, 01 Jan 2024 00:00:00 GMT", gotHeader.Get("Date"))
}

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":2}`))
	})
	mux.HandleFunc("/500", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	return mux
}

func TestExecutor_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Query().Get("body")))
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "below limit",
			body: "0123456",
		},
		{
			name: "exactly limit",
			body: "01234567",
		},
		{
			name:    "over limit",
			body:    "012345678",
			wantErr: errs.ErrBodyTooLarge,
		},
	}
	e := NewExecutor(srv.Client(), WithMaxBytes(8))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := e.Get(context.Background(), srv.URL+"?body="+tt.body, time.Second)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(resp.Body))
		})
	}
}
