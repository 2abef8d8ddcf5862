package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "h3perf_queries_total",
		Help: "Total number of executed benchmark queries",
	}, []string{"strategy"})
	QueryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "h3perf_query_failures_total",
		Help: "Total number of benchmark queries rejected by the store",
	})
	QueryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "h3perf_query_duration_ms",
		Help:    "Store-reported query execution time in milliseconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"strategy", "resolution"})
	RecordsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "h3perf_records_ingested_total",
		Help: "Total number of indexed city records written to the store",
	})
	CorpusSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "h3perf_corpus_size",
		Help: "Number of query descriptors in the current corpus",
	})
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryFailuresTotal)
	prometheus.MustRegister(QueryDurationMs)
	prometheus.MustRegister(RecordsIngestedTotal)
	prometheus.MustRegister(CorpusSize)
}

// Handler：/metrics 抓取端点
func Handler() http.Handler { return promhttp.Handler() }
