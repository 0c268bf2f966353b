// Package worker runs the claim/heartbeat/dispatch/terminate loop that
// drives one worker process: lease a job from the queue, stage its
// inputs, dispatch it to the right tool operation, upload outputs, and
// report the terminal outcome.
package worker

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"zenpdf-worker/internal/dispatcher"
	"zenpdf-worker/internal/models"
	"zenpdf-worker/internal/pkg/blobtransfer"
	"zenpdf-worker/internal/pkg/jobhistory"
	"zenpdf-worker/internal/pkg/metrics"
	"zenpdf-worker/internal/pkg/queueclient"
	"zenpdf-worker/internal/pkg/workererr"
	"zenpdf-worker/internal/scratch"
)

// claimResult is the RPC response shape for jobs:claimNextJob: a job
// descriptor, or a nil Job when the queue has nothing to lease.
type claimResult struct {
	Job *models.Job `json:"job"`
}

// claimArgs is the jobs:claimNextJob request object.
type claimArgs struct {
	WorkerID    string `json:"workerId"`
	WorkerToken string `json:"workerToken"`
}

// progressArgs is the jobs:reportJobProgress request object.
type progressArgs struct {
	JobID       string `json:"jobId"`
	WorkerID    string `json:"workerId"`
	Progress    int    `json:"progress"`
	WorkerToken string `json:"workerToken"`
}

// completeArgs is the jobs:completeJob request object.
type completeArgs struct {
	JobID          string             `json:"jobId"`
	WorkerID       string             `json:"workerId"`
	Outputs        []models.OutputRef `json:"outputs"`
	MinutesUsed    float64            `json:"minutesUsed"`
	BytesProcessed int64              `json:"bytesProcessed"`
	WorkerToken    string             `json:"workerToken"`
}

// failArgs is the jobs:failJob request object.
type failArgs struct {
	JobID        string `json:"jobId"`
	WorkerID     string `json:"workerId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	WorkerToken  string `json:"workerToken"`
}

// Loop is one worker's claim/heartbeat/dispatch/terminate state
// machine.
type Loop struct {
	WorkerID          string
	WorkerToken       string
	Queue             *queueclient.Client
	Transfer          *blobtransfer.Transfer
	Dispatcher        *dispatcher.Dispatcher
	History           jobhistory.Repository
	Metrics           *metrics.WorkerMetrics
	Logger            *zap.Logger
	PollInterval      time.Duration
	HeartbeatInterval time.Duration

	ready atomic.Bool
}

// Ready reports whether the loop has completed at least one
// successful RPC, used by the operational HTTP surface's /ready probe.
func (l *Loop) Ready() bool { return l.ready.Load() }

// Run polls for jobs until ctx is cancelled, processing at most one
// job at a time.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := l.claim(ctx)
		if err != nil {
			l.Logger.Warn("claim failed", zap.Error(err))
			l.sleep(ctx, l.PollInterval)
			continue
		}
		if job == nil {
			l.sleep(ctx, l.PollInterval)
			continue
		}
		l.ready.Store(true)
		l.runJob(ctx, *job)
	}
}

func (l *Loop) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (l *Loop) claim(ctx context.Context) (*models.Job, error) {
	var out claimResult
	args := claimArgs{WorkerID: l.WorkerID, WorkerToken: l.WorkerToken}
	if err := l.Queue.Query(ctx, queueclient.PathClaim, args, &out); err != nil {
		return nil, err
	}
	l.ready.Store(true)
	return out.Job, nil
}

// runJob drives one leased job end to end, never letting a failure in
// its own error handling escape back to Run.
func (l *Loop) runJob(ctx context.Context, job models.Job) {
	start := time.Now()
	progress := newProgress(ctx, l.Queue, job.ID, l.WorkerID, l.WorkerToken, l.HeartbeatInterval, l.Logger)
	defer progress.stop()
	progress.set(10)

	dir, err := scratch.New()
	if err != nil {
		l.fail(ctx, job, start, workererr.Userf("could not allocate scratch space: %v", err))
		return
	}
	defer dir.Close()

	inputBytes, localInputs, err := l.downloadInputs(ctx, job, dir)
	if err != nil {
		l.fail(ctx, job, start, err)
		return
	}
	progress.set(40)

	outputPaths, err := l.Dispatcher.Dispatch(ctx, job, localInputs, dir.Root)
	if err != nil {
		l.fail(ctx, job, start, err)
		return
	}
	progress.set(75)

	outputs, outputBytes, err := l.uploadOutputs(ctx, outputPaths)
	if err != nil {
		l.fail(ctx, job, start, err)
		return
	}

	elapsedMinutes := math.Max(0.01, time.Since(start).Minutes())
	completeReq := completeArgs{
		JobID:          job.ID,
		WorkerID:       l.WorkerID,
		Outputs:        outputs,
		MinutesUsed:    elapsedMinutes,
		BytesProcessed: inputBytes,
		WorkerToken:    l.WorkerToken,
	}
	if err := l.Queue.Mutation(ctx, queueclient.PathComplete, completeReq, nil); err != nil {
		// The queue never observed a terminal event for this job: route
		// it through fail rather than silently dropping it, so exactly
		// one of completeJob/failJob is always attempted to land.
		l.fail(ctx, job, start, fmt.Errorf("complete RPC failed: %w", err))
		return
	}
	progress.set(100)

	l.recordHistory(ctx, job, "complete", "", inputBytes, outputBytes, start, nil, "", "")
	if l.Metrics != nil {
		l.Metrics.JobsTotal.WithLabelValues(string(job.Tool), "complete").Inc()
		l.Metrics.JobDuration.WithLabelValues(string(job.Tool)).Observe(time.Since(start).Seconds())
	}
}

func (l *Loop) downloadInputs(ctx context.Context, job models.Job, dir *scratch.Dir) (int64, []string, error) {
	var total int64
	paths := make([]string, len(job.Inputs))
	for i, input := range job.Inputs {
		dest := dir.InputPath(i+1, input.Filename)
		if err := l.Transfer.Download(ctx, input.StorageID, dest); err != nil {
			return 0, nil, fmt.Errorf("download input %d: %w", i+1, err)
		}
		paths[i] = dest
		total += input.SizeBytes
	}
	return total, paths, nil
}

func (l *Loop) uploadOutputs(ctx context.Context, paths []string) ([]models.OutputRef, int64, error) {
	var total int64
	outputs := make([]models.OutputRef, len(paths))
	for i, p := range paths {
		stat, err := os.Stat(p)
		if err != nil {
			return nil, 0, fmt.Errorf("stat output %s: %w", p, err)
		}
		storageID, err := l.Transfer.Upload(ctx, p)
		if err != nil {
			return nil, 0, fmt.Errorf("upload output %s: %w", p, err)
		}
		outputs[i] = models.OutputRef{StorageID: storageID, Filename: filepath.Base(p), SizeBytes: stat.Size()}
		total += stat.Size()
	}
	return outputs, total, nil
}

// fail classifies err and reports it, wrapping the fail RPC itself so
// a transport failure here cannot crash the loop.
func (l *Loop) fail(ctx context.Context, job models.Job, start time.Time, err error) {
	code := "SERVICE_CAPACITY_TEMPORARY"
	message := "the worker could not complete this job"
	if workererr.IsUser(err) {
		code = "USER_INPUT_INVALID"
		message = err.Error()
	} else {
		l.Logger.Error("job failed", zap.String("jobId", job.ID), zap.String("tool", string(job.Tool)), zap.Error(err))
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				l.Logger.Error("fail RPC panicked", zap.Any("recover", r))
			}
		}()
		failReq := failArgs{
			JobID:        job.ID,
			WorkerID:     l.WorkerID,
			ErrorCode:    code,
			ErrorMessage: message,
			WorkerToken:  l.WorkerToken,
		}
		if rpcErr := l.Queue.Mutation(ctx, queueclient.PathFail, failReq, nil); rpcErr != nil {
			l.Logger.Error("fail RPC failed", zap.String("jobId", job.ID), zap.Error(rpcErr))
		}
	}()

	l.recordHistory(ctx, job, "fail", "", 0, 0, start, nil, code, message)
	if l.Metrics != nil {
		l.Metrics.JobsTotal.WithLabelValues(string(job.Tool), "fail").Inc()
		l.Metrics.JobErrorsTotal.WithLabelValues(string(job.Tool), code).Inc()
	}
}

func (l *Loop) recordHistory(ctx context.Context, job models.Job, status, method string, originalBytes, outputBytes int64, start time.Time, steps []models.StepRecord, errCode, errMsg string) {
	if l.History == nil {
		return
	}
	row := jobhistory.NewRow(job.ID, job.Tool, status, method, originalBytes, outputBytes, start, time.Now(), steps, nil, errCode, errMsg)
	if err := l.History.Record(ctx, row); err != nil {
		l.Logger.Warn("failed to record job history", zap.String("jobId", job.ID), zap.Error(err))
	}
}

// progressReporter tracks the current progress value and reports it
// both on explicit set() calls and on a heartbeat tick, so a
// long-running tool still pings the queue even between progress steps.
type progressReporter struct {
	ctx         context.Context
	queue       *queueclient.Client
	jobID       string
	workerID    string
	workerToken string
	value       atomic.Int32
	logger      *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func newProgress(ctx context.Context, queue *queueclient.Client, jobID, workerID, workerToken string, interval time.Duration, logger *zap.Logger) *progressReporter {
	p := &progressReporter{ctx: ctx, queue: queue, jobID: jobID, workerID: workerID, workerToken: workerToken, logger: logger, stopCh: make(chan struct{})}
	if interval <= 0 {
		return p
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.report()
			}
		}
	}()
	return p
}

func (p *progressReporter) set(v int) {
	p.value.Store(int32(v))
	p.report()
}

func (p *progressReporter) report() {
	args := progressArgs{
		JobID:       p.jobID,
		WorkerID:    p.workerID,
		Progress:    int(p.value.Load()),
		WorkerToken: p.workerToken,
	}
	if err := p.queue.Mutation(p.ctx, queueclient.PathProgress, args, nil); err != nil {
		p.logger.Warn("progress RPC failed", zap.String("jobId", p.jobID), zap.Error(err))
	}
}

// stop signals the heartbeat goroutine to exit and waits up to 1
// second for it to do so.
func (p *progressReporter) stop() {
	close(p.stopCh)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		p.logger.Warn("heartbeat goroutine did not stop within 1s", zap.String("jobId", p.jobID))
	}
}
