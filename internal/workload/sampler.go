package workload

import (
	"context"
	"h3-perf/internal/bencherr"
	"h3-perf/internal/logger"
	"h3-perf/internal/model"
	"strconv"
)

func itoa(n int) string { return strconv.Itoa(n) }

// RecordSource：由存储按其自身随机顺序返回至多 n 条记录
type RecordSource interface {
	RandomRecords(ctx context.Context, n int) ([]model.IndexedRecord, error)
}

// Sampler：采样策略
// 约束：默认不足量时使用全部可用记录并记录告警；Strict 时返回 InsufficientDataError
type Sampler struct {
	src    RecordSource
	Strict bool
}

func NewSampler(src RecordSource) *Sampler { return &Sampler{src: src} }

// Sample：请求 n 条随机记录；本身不做随机化
func (s *Sampler) Sample(ctx context.Context, n int) ([]model.IndexedRecord, error) {
	if n <= 0 {
		return nil, bencherr.InvalidInput("sample", "sample size must be positive, got %d", n)
	}
	logger.L().Info("sample_start", "requested", n)
	records, err := s.src.RandomRecords(ctx, n)
	if err != nil {
		return nil, bencherr.IO("cities", "random read", err)
	}
	if len(records) < n {
		if s.Strict || len(records) == 0 {
			return nil, bencherr.New(bencherr.KindInsufficientData, "sample",
				"requested "+itoa(n)+" records, store holds "+itoa(len(records)))
		}
		logger.L().Warn("sample_degraded", "requested", n, "available", len(records))
	}
	logger.L().Info("sample_done", "count", len(records))
	return records, nil
}
