// 包 progress：harness.Reporter 的实现（日志、指标、Redis 发布）
// 约束：观察者只读，任何失败都不能中断或影响计时累加
package progress

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"h3-perf/internal/harness"
	"h3-perf/internal/logger"
	"h3-perf/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// Log：每 every 条及最后一条输出一次进度日志
type Log struct {
	every int
	l     *slog.Logger
}

// NewLog：every <= 0 时只在完成时输出
func NewLog(every int) *Log {
	return &Log{every: every, l: logger.L()}
}

func (r *Log) Step(p harness.Progress) {
	if p.Done != p.Total && (r.every <= 0 || p.Done%r.every != 0) {
		return
	}
	r.l.Info("harness_progress", "done", p.Done, "total", p.Total, "strategy", string(p.Descriptor.Strategy), "resolution", p.Descriptor.Resolution)
}

// Metrics：把每条查询计入 Prometheus 计数器与直方图
type Metrics struct{}

func (Metrics) Step(p harness.Progress) {
	s := string(p.Descriptor.Strategy)
	metrics.QueriesTotal.WithLabelValues(s).Inc()
	metrics.QueryDurationMs.WithLabelValues(s, strconv.Itoa(p.Descriptor.Resolution)).Observe(float64(p.Elapsed) / float64(time.Millisecond))
}

// Publisher：*redis.Client 满足该接口
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Event：发布到频道的 JSON 消息
type Event struct {
	Done       int     `json:"done"`
	Total      int     `json:"total"`
	ID         string  `json:"id"`
	Strategy   string  `json:"strategy"`
	Resolution int     `json:"resolution"`
	ElapsedMs  float64 `json:"elapsed_ms"`
}

// Redis：按 every 间隔向频道发布进度；发布失败只记日志
type Redis struct {
	pub     Publisher
	channel string
	every   int
	timeout time.Duration
}

// NewRedis：pub 为 nil 时返回 nil，调用方按未配置处理
func NewRedis(pub Publisher, channel string, every int) *Redis {
	if pub == nil || channel == "" {
		return nil
	}
	return &Redis{pub: pub, channel: channel, every: every, timeout: 2 * time.Second}
}

func (r *Redis) Step(p harness.Progress) {
	if p.Done != p.Total && (r.every <= 0 || p.Done%r.every != 0) {
		return
	}
	ev := Event{
		Done:       p.Done,
		Total:      p.Total,
		ID:         p.Descriptor.ID,
		Strategy:   string(p.Descriptor.Strategy),
		Resolution: p.Descriptor.Resolution,
		ElapsedMs:  float64(p.Elapsed) / float64(time.Millisecond),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.pub.Publish(ctx, r.channel, b).Err(); err != nil {
		logger.L().Warn("progress_publish_fail", "channel", r.channel, "err", err)
	}
}

// Multi：依次转发给每个非 nil 的观察者
type Multi []harness.Reporter

// Combine：过滤掉 nil（包括持有 nil 指针的接口值）
func Combine(rs ...harness.Reporter) Multi {
	var out Multi
	for _, r := range rs {
		switch v := r.(type) {
		case nil:
			continue
		case *Redis:
			if v == nil {
				continue
			}
		case *Log:
			if v == nil {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func (m Multi) Step(p harness.Progress) {
	for _, r := range m {
		r.Step(p)
	}
}
