// 包 harness：按语料顺序串行执行查询，并把存储侧耗时归入 (策略, 分辨率) 桶
package harness

import (
	"context"
	"errors"
	"fmt"
	"h3-perf/internal/bencherr"
	"h3-perf/internal/logger"
	"h3-perf/internal/metrics"
	"h3-perf/internal/model"
	"h3-perf/internal/query"
	"sync/atomic"
	"time"
)

// Executor：执行语句并返回存储自身计量的耗时
type Executor interface {
	Execute(ctx context.Context, st query.Statement) (query.Execution, error)
}

// Progress：每条描述符完成后的通知
type Progress struct {
	Done       int
	Total      int
	Descriptor model.QueryDescriptor
	Elapsed    time.Duration
}

// Reporter：进度观察者；只读，不影响计时累加
type Reporter interface {
	Step(p Progress)
}

// State：Idle -> Running -> Completed / Failed
type State int32

const (
	Idle State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// ErrBusy：同一 Harness 上已有运行中的 Run
var ErrBusy = errors.New("harness: run already in progress")

// ExecutionError：失败的描述符及其在语料中的位置
type ExecutionError struct {
	Position   int
	Descriptor model.QueryDescriptor
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query %d (%s, %s res %d): %v", e.Position, e.Descriptor.ID, e.Descriptor.Strategy, e.Descriptor.Resolution, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Harness：串行执行器，无重试、无并发
type Harness struct {
	exec     Executor
	builder  *query.Builder
	reporter Reporter
	state    atomic.Int32
}

// New：reporter 可为 nil
func New(exec Executor, b *query.Builder, r Reporter) *Harness {
	return &Harness{exec: exec, builder: b, reporter: r}
}

func (h *Harness) State() State { return State(h.state.Load()) }

func (h *Harness) begin() bool {
	for {
		cur := h.state.Load()
		if State(cur) == Running {
			return false
		}
		if h.state.CompareAndSwap(cur, int32(Running)) {
			return true
		}
	}
}

// Run：按给定顺序逐条执行，每次运行使用新的桶
// 约束：任一查询失败立即终止并返回 ExecutionError，不返回部分结果
func (h *Harness) Run(ctx context.Context, corpus []model.QueryDescriptor) (*Bucket, error) {
	if !h.begin() {
		return nil, ErrBusy
	}
	l := logger.L()
	l.Info("harness_start", "queries", len(corpus))
	start := time.Now()
	bucket := NewBucket()
	for i, d := range corpus {
		ex, err := h.execute(ctx, d)
		if err != nil {
			h.state.Store(int32(Failed))
			metrics.QueryFailuresTotal.Inc()
			e := &ExecutionError{Position: i, Descriptor: d, Err: err}
			l.Error("harness_failed", "position", i, "id", d.ID, "err", err)
			return nil, e
		}
		bucket.add(d.Strategy, d.Resolution, ex.Elapsed)
		if h.reporter != nil {
			h.reporter.Step(Progress{Done: i + 1, Total: len(corpus), Descriptor: d, Elapsed: ex.Elapsed})
		}
	}
	h.state.Store(int32(Completed))
	l.Info("harness_done", "queries", len(corpus), "wall", time.Since(start).Round(time.Millisecond))
	return bucket, nil
}

func (h *Harness) execute(ctx context.Context, d model.QueryDescriptor) (query.Execution, error) {
	wrap := func(msg string, cause error) error {
		return bencherr.Wrap(bencherr.KindQueryExecution, d.ID, msg, cause)
	}
	if d.Resolution < 0 || d.Resolution >= model.Resolutions {
		return query.Execution{}, wrap(fmt.Sprintf("resolution %d out of range", d.Resolution), nil)
	}
	if d.Strategy != model.CellLookup && d.Strategy != model.DistanceLookup {
		return query.Execution{}, wrap(fmt.Sprintf("unknown strategy %q", d.Strategy), nil)
	}
	if err := ctx.Err(); err != nil {
		return query.Execution{}, wrap("canceled", err)
	}
	ex, err := h.exec.Execute(ctx, h.builder.Statement(d))
	if err != nil {
		return query.Execution{}, wrap("execute", err)
	}
	if ex.Elapsed < 0 {
		return query.Execution{}, wrap(fmt.Sprintf("negative elapsed time %v", ex.Elapsed), nil)
	}
	return ex, nil
}
