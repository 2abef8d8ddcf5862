package workload

import (
	"context"
	"errors"
	"h3-perf/internal/bencherr"
	"h3-perf/internal/logger"
	"h3-perf/internal/metrics"
	"h3-perf/internal/model"
	"h3-perf/internal/spatial"
	"io"
	"os"
)

// RecordWriter：持久化带索引的记录
type RecordWriter interface {
	InsertRecords(ctx context.Context, records []model.IndexedRecord) error
}

// Ingester：原始文件 -> 16 级 H3 索引 -> 存储
type Ingester struct {
	w RecordWriter
}

func NewIngester(w RecordWriter) *Ingester { return &Ingester{w: w} }

// IngestFile：打开原始文件并导入
func (in *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, bencherr.IO(path, "open source", err)
	}
	defer f.Close()
	return in.Ingest(ctx, f)
}

// Ingest：全部解析并索引成功后一次性写入；任一行失败则整体放弃
func (in *Ingester) Ingest(ctx context.Context, r io.Reader) (int, error) {
	l := logger.L()
	l.Info("ingest_start")
	rr, err := NewRawReader(r)
	if err != nil {
		return 0, err
	}
	var records []model.IndexedRecord
	for {
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		rec := model.IndexedRecord{Name: row.Name, Population: row.Population, Point: row.Point}
		if err := spatial.IndexRecord(&rec); err != nil {
			return 0, bencherr.Wrap(bencherr.KindInvalidInput, "line "+itoa(row.Line), "index", err)
		}
		records = append(records, rec)
		if len(records)%5000 == 0 {
			l.Info("ingest_progress", "count", len(records))
		}
	}
	if err := in.w.InsertRecords(ctx, records); err != nil {
		return 0, bencherr.IO("cities", "persist records", err)
	}
	metrics.RecordsIngestedTotal.Add(float64(len(records)))
	l.Info("ingest_done", "count", len(records))
	return len(records), nil
}
