package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"zenpdf-worker/configs"
	"zenpdf-worker/internal/dispatcher"
	"zenpdf-worker/internal/models"
	"zenpdf-worker/internal/pkg/blobtransfer"
	"zenpdf-worker/internal/pkg/external"
	"zenpdf-worker/internal/pkg/jobhistory"
	"zenpdf-worker/internal/pkg/queueclient"
	"zenpdf-worker/internal/pkg/toolrunner"
	"zenpdf-worker/internal/scratch"
	"zenpdf-worker/internal/tools"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testRetryConfig() external.RetryConfig {
	return external.RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

type call struct {
	route string
	path  string
	args  []interface{}
}

// fakeQueueServer replays a scripted sequence of RPC responses keyed
// by path, recording every call it receives.
type fakeQueueServer struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]string
}

func newFakeQueueServer() *fakeQueueServer {
	return &fakeQueueServer{responses: map[string]string{}}
}

func (f *fakeQueueServer) on(path, jsonValue string) {
	f.responses[path] = jsonValue
}

func (f *fakeQueueServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env struct {
			Path string        `json:"path"`
			Args []interface{} `json:"args"`
		}
		_ = json.NewDecoder(r.Body).Decode(&env)

		f.mu.Lock()
		f.calls = append(f.calls, call{route: r.URL.Path, path: env.Path, args: env.Args})
		value, ok := f.responses[env.Path]
		f.mu.Unlock()

		if !ok {
			value = "null"
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"success","value":` + value + `}`))
	}
}

func (f *fakeQueueServer) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.path == path {
			n++
		}
	}
	return n
}

func newTestHistory(t *testing.T) jobhistory.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&jobhistory.Row{}))
	return jobhistory.NewRepository(db)
}

// TestRunReportsTransientErrorsAsServiceCapacity drives a full
// claim->download->dispatch->fail cycle through Run, using an input
// that is not a real PDF so the underlying tool call fails with a
// plain (non-user) error.
func TestRunReportsTransientErrorsAsServiceCapacity(t *testing.T) {
	blobSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("not a real pdf"))
		case http.MethodPost:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"storageId":"out-1"}`))
		}
	}))
	defer blobSrv.Close()

	fq := newFakeQueueServer()
	fq.on(queueclient.PathClaim, `{"job":{"_id":"job-1","tool":"repair","inputs":[{"storageId":"in-1","filename":"doc.pdf","sizeBytes":14}],"config":{}}}`)
	fq.on(queueclient.PathIssueDownload, `{"url":"`+blobSrv.URL+`"}`)
	fq.on(queueclient.PathIssueUploadURL, `{"url":"`+blobSrv.URL+`"}`)

	queueSrv := httptest.NewServer(fq.handler())
	defer queueSrv.Close()

	queue := queueclient.New(queueSrv.URL, "secret", testRetryConfig(), 2*time.Second)
	transfer := blobtransfer.New(queue, "tok-1")
	ops := tools.New(toolrunner.New(), nil)
	disp := dispatcher.New(ops, toolrunner.New(), configs.CompressConfig{})

	loop := &Loop{
		WorkerID:          "worker-1",
		WorkerToken:       "tok-1",
		Queue:             queue,
		Transfer:          transfer,
		Dispatcher:        disp,
		History:           newTestHistory(t),
		Logger:            zap.NewNop(),
		PollInterval:      10 * time.Millisecond,
		HeartbeatInterval: 0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	var ranOnce atomic.Bool
	go func() {
		for i := 0; i < 50; i++ {
			if fq.callCount(queueclient.PathFail) > 0 {
				ranOnce.Store(true)
				cancel()
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		cancel()
	}()

	loop.Run(ctx)

	assert.True(t, ranOnce.Load(), "expected the job to reach fail before the context was cancelled")
	assert.Equal(t, 1, fq.callCount(queueclient.PathFail))
	assert.Equal(t, 0, fq.callCount(queueclient.PathComplete))

	fq.mu.Lock()
	var code, token string
	for _, c := range fq.calls {
		if c.path == queueclient.PathFail {
			argsObj := c.args[0].(map[string]interface{})
			code = argsObj["errorCode"].(string)
			token = argsObj["workerToken"].(string)
		}
	}
	fq.mu.Unlock()
	assert.Equal(t, "SERVICE_CAPACITY_TEMPORARY", code)
	assert.Equal(t, "tok-1", token)
}

func TestRunReportsUserErrorsAsUserInputInvalid(t *testing.T) {
	fq := newFakeQueueServer()
	fq.on(queueclient.PathClaim, `{"job":{"_id":"job-2","tool":"compare","inputs":[{"storageId":"in-1","filename":"a.pdf","sizeBytes":4}],"config":{}}}`)
	fq.on(queueclient.PathIssueDownload, `{"url":""}`)

	queueSrv := httptest.NewServer(fq.handler())
	defer queueSrv.Close()

	blobSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("x"))
	}))
	defer blobSrv.Close()
	fq.on(queueclient.PathIssueDownload, `{"url":"`+blobSrv.URL+`"}`)

	queue := queueclient.New(queueSrv.URL, "secret", testRetryConfig(), 2*time.Second)
	transfer := blobtransfer.New(queue, "tok-1")
	ops := tools.New(toolrunner.New(), nil)
	disp := dispatcher.New(ops, toolrunner.New(), configs.CompressConfig{})

	loop := &Loop{
		WorkerID:     "worker-1",
		WorkerToken:  "tok-1",
		Queue:        queue,
		Transfer:     transfer,
		Dispatcher:   disp,
		History:      newTestHistory(t),
		Logger:       zap.NewNop(),
		PollInterval: 10 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for i := 0; i < 50; i++ {
			if fq.callCount(queueclient.PathFail) > 0 {
				cancel()
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		cancel()
	}()
	loop.Run(ctx)

	require.Equal(t, 1, fq.callCount(queueclient.PathFail))
	fq.mu.Lock()
	var code string
	for _, c := range fq.calls {
		if c.path == queueclient.PathFail {
			argsObj := c.args[0].(map[string]interface{})
			code = argsObj["errorCode"].(string)
		}
	}
	fq.mu.Unlock()
	assert.Equal(t, "USER_INPUT_INVALID", code)
}

func TestProgressReporterStopsWithinOneSecond(t *testing.T) {
	fq := newFakeQueueServer()
	queueSrv := httptest.NewServer(fq.handler())
	defer queueSrv.Close()

	queue := queueclient.New(queueSrv.URL, "", testRetryConfig(), 2*time.Second)
	p := newProgress(context.Background(), queue, "job-1", "worker-1", "tok-1", 5*time.Millisecond, zap.NewNop())
	p.set(10)
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	p.stop()
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.GreaterOrEqual(t, fq.callCount(queueclient.PathProgress), 1)
}

func TestDownloadInputsSumsSizeBytes(t *testing.T) {
	blobSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("abcdefgh"))
	}))
	defer blobSrv.Close()

	fq := newFakeQueueServer()
	fq.on(queueclient.PathIssueDownload, `{"url":"`+blobSrv.URL+`"}`)
	queueSrv := httptest.NewServer(fq.handler())
	defer queueSrv.Close()

	queue := queueclient.New(queueSrv.URL, "", testRetryConfig(), 2*time.Second)
	loop := &Loop{Queue: queue, Transfer: blobtransfer.New(queue, "tok-1"), Logger: zap.NewNop()}

	dir, err := scratch.New()
	require.NoError(t, err)
	defer dir.Close()

	job := models.Job{
		ID:   "job-3",
		Tool: models.ToolPDFToText,
		Inputs: []models.InputRef{
			{StorageID: "s1", Filename: "a.pdf", SizeBytes: 100},
			{StorageID: "s2", Filename: "b.pdf", SizeBytes: 200},
		},
	}
	total, paths, err := loop.downloadInputs(context.Background(), job, dir)
	require.NoError(t, err)
	assert.Equal(t, int64(300), total)
	assert.Len(t, paths, 2)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}
