package workload

import (
	"context"
	"h3-perf/internal/logger"
	"h3-perf/internal/metrics"
	"h3-perf/internal/model"
	"h3-perf/internal/query"
	"math/rand/v2"
)

// Paths：工作负载输出文件
type Paths struct {
	Records string
	Corpus  string
}

// Summary：一次生成的结果概要
type Summary struct {
	Ingested int
	Sampled  int
	Queries  int
	Seed     uint64
}

// Generator：导入 -> 采样 -> 查询对 -> 打乱 -> 写文件
type Generator struct {
	ingester *Ingester
	sampler  *Sampler
	builder  *query.Builder
	paths    Paths
	seed     uint64
}

// NewGenerator：seed 为 0 时随机选取并写入日志，便于复现
func NewGenerator(in *Ingester, s *Sampler, b *query.Builder, paths Paths, seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{ingester: in, sampler: s, builder: b, paths: paths, seed: seed}
}

func (g *Generator) Seed() uint64 { return g.seed }

// Generate：完整流水线；任何一步失败都不会改动已有的记录与语料文件
func (g *Generator) Generate(ctx context.Context, sourcePath string, n int) (Summary, error) {
	ingested, err := g.ingester.IngestFile(ctx, sourcePath)
	if err != nil {
		return Summary{}, err
	}
	records, err := g.sampler.Sample(ctx, n)
	if err != nil {
		return Summary{}, err
	}
	corpus, err := g.BuildCorpus(records)
	if err != nil {
		return Summary{}, err
	}
	if err := WriteWorkload(g.paths, records, corpus); err != nil {
		return Summary{}, err
	}
	logger.L().Info("workload_written", "records", g.paths.Records, "corpus", g.paths.Corpus, "queries", len(corpus), "seed", g.seed)
	return Summary{Ingested: ingested, Sampled: len(records), Queries: len(corpus), Seed: g.seed}, nil
}

// Rebuild：从已有采样记录文件重新生成语料（新的 id 与顺序）
func (g *Generator) Rebuild() (Summary, error) {
	records, err := ReadRecordsFile(g.paths.Records)
	if err != nil {
		return Summary{}, err
	}
	corpus, err := g.BuildCorpus(records)
	if err != nil {
		return Summary{}, err
	}
	if err := WriteCorpusFile(g.paths.Corpus, corpus); err != nil {
		return Summary{}, err
	}
	logger.L().Info("corpus_rebuilt", "corpus", g.paths.Corpus, "queries", len(corpus), "seed", g.seed)
	return Summary{Sampled: len(records), Queries: len(corpus), Seed: g.seed}, nil
}

// BuildCorpus：为每条记录生成 32 个描述符后整体打乱
func (g *Generator) BuildCorpus(records []model.IndexedRecord) ([]model.QueryDescriptor, error) {
	corpus := make([]model.QueryDescriptor, 0, len(records)*query.PairsPerRecord)
	for _, r := range records {
		pairs, err := g.builder.BuildPairs(r)
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, pairs...)
	}
	corpus = query.NewShuffler(g.seed).Shuffle(corpus)
	metrics.CorpusSize.Set(float64(len(corpus)))
	logger.L().Debug("corpus_built", "records", len(records), "queries", len(corpus))
	return corpus, nil
}
