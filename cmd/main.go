// 程序入口：读取配置、初始化存储，按子命令生成工作负载或执行基准
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"h3-perf/internal/bencherr"
	"h3-perf/internal/config"
	"h3-perf/internal/harness"
	"h3-perf/internal/logger"
	"h3-perf/internal/metrics"
	"h3-perf/internal/migrate"
	"h3-perf/internal/progress"
	"h3-perf/internal/query"
	"h3-perf/internal/store"
	"h3-perf/internal/utils"
	"h3-perf/internal/workload"

	"github.com/jmoiron/sqlx"
)

const usage = `usage: h3-perf <command> [flags]

commands:
  generate [-n N] [-source path] [-seed S] [-strict]   import source, sample, write records and corpus
  corpus [-seed S]                                     rebuild corpus from the sampled records file
  run                                                  execute the corpus and print the report
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("config_error", "err", err)
		os.Exit(bencherr.ExitCode(err))
	}
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	l.Debug("log_init_ok", "level", cfg.LogLevel, "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		l.Error("h3perf_failed", "kind", string(bencherr.KindOf(err)), "err", err)
		os.Exit(bencherr.ExitCode(err))
	}
}

// run：分发子命令；METRICS_ADDR 非空时在命令执行期间暴露 /metrics
func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return bencherr.InvalidInput("args", "missing command\n%s", usage)
	}
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}
	switch args[0] {
	case "generate":
		return cmdGenerate(ctx, cfg, args[1:])
	case "corpus":
		return cmdCorpus(cfg, args[1:])
	case "run":
		return cmdRun(ctx, cfg, args[1:], stdout)
	case "help", "-h", "--help":
		_, _ = io.WriteString(stdout, usage)
		return nil
	}
	return bencherr.InvalidInput("args", "unknown command %q\n%s", args[0], usage)
}

func serveMetrics(addr string) *http.Server {
	l := logger.L()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	s := &http.Server{Addr: addr, Handler: logger.AccessMiddleware(l)(mux)}
	go func() {
		l.Info("metrics_listening", "addr", addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics_listen_error", "err", err)
		}
	}()
	return s
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return bencherr.Wrap(bencherr.KindInvalidInput, fs.Name(), "flags", err)
	}
	if fs.NArg() > 0 {
		return bencherr.InvalidInput(fs.Name(), "unexpected arguments %v", fs.Args())
	}
	return nil
}

// dialectFor：STORE=postgres 使用 postgis 方言
func dialectFor(cfg *config.Config) (query.Dialect, error) {
	name := strings.ToLower(cfg.Store)
	if name == "postgres" {
		name = "postgis"
	}
	d, err := query.DialectByName(name)
	if err != nil {
		return nil, bencherr.Wrap(bencherr.KindInvalidInput, "STORE", "dialect", err)
	}
	return d, nil
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	if strings.ToLower(cfg.Store) == "sqlite" {
		return utils.OpenSQLite(cfg.SQLitePath)
	}
	return utils.OpenPostgres(cfg)
}

// openStore：打开连接并确认可达
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	l := logger.L()
	d, err := dialectFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, bencherr.IO(cfg.Store, "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		l.Error("db_ping_error", "store", cfg.Store, "err", err)
		return nil, bencherr.IO(cfg.Store, "ping", err)
	}
	l.Info("db_open_ok", "store", cfg.Store, "dialect", d.Name(), "timing", cfg.Timing)
	return store.AttachDB(db, d, store.Timing(strings.ToLower(cfg.Timing))), nil
}

func paths(cfg *config.Config) workload.Paths {
	return workload.Paths{Records: cfg.RecordsPath(), Corpus: cfg.CorpusPath()}
}

// cmdGenerate：重建 cities 表并导入源文件，随后采样并写出记录与语料文件
func cmdGenerate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	n := fs.Int("n", cfg.SampleSize, "number of records to sample")
	source := fs.String("source", cfg.SourcePath, "raw geonames file")
	seed := fs.Uint64("seed", cfg.Seed, "shuffle seed, 0 picks one")
	strict := fs.Bool("strict", cfg.StrictSample, "fail when the store holds fewer records than requested")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *n <= 0 {
		return bencherr.InvalidInput("-n", "sample size must be positive, got %d", *n)
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := migrate.ResetSchema(ctx, st.DB(), st.Dialect()); err != nil {
		return bencherr.IO("schema", "reset", err)
	}
	sampler := workload.NewSampler(st)
	sampler.Strict = *strict
	g := workload.NewGenerator(workload.NewIngester(st), sampler, query.NewBuilder(st.Dialect()), paths(cfg), *seed)
	sum, err := g.Generate(ctx, *source, *n)
	if err != nil {
		return err
	}
	logger.L().Info("generate_done", "ingested", sum.Ingested, "sampled", sum.Sampled, "queries", sum.Queries, "seed", sum.Seed)
	return nil
}

// cmdCorpus：不访问数据库，仅由已采样记录重新生成语料
func cmdCorpus(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("corpus", flag.ContinueOnError)
	seed := fs.Uint64("seed", cfg.Seed, "shuffle seed, 0 picks one")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	d, err := dialectFor(cfg)
	if err != nil {
		return err
	}
	g := workload.NewGenerator(nil, nil, query.NewBuilder(d), paths(cfg), *seed)
	sum, err := g.Rebuild()
	if err != nil {
		return err
	}
	logger.L().Info("corpus_done", "sampled", sum.Sampled, "queries", sum.Queries, "seed", sum.Seed)
	return nil
}

// reporters：日志与指标始终启用；配置了 PROGRESS_CHANNEL 时追加 Redis 发布
func reporters(ctx context.Context, cfg *config.Config) (harness.Reporter, func()) {
	l := logger.L()
	var pub progress.Publisher
	closeFn := func() {}
	if rc := utils.OpenRedis(cfg); rc != nil {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok", "channel", cfg.ProgressChannel)
		}
		pub = rc
		closeFn = func() { _ = rc.Close() }
	} else {
		l.Info("redis_disabled")
	}
	return progress.Combine(
		progress.NewLog(cfg.ProgressEvery),
		progress.Metrics{},
		progress.NewRedis(pub, cfg.ProgressChannel, cfg.ProgressEvery),
	), closeFn
}

// cmdRun：读取语料，逐条执行并把汇总报告写到 stdout
func cmdRun(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := migrate.EnsureSchema(ctx, st.DB(), st.Dialect()); err != nil {
		return bencherr.IO("schema", "ensure", err)
	}
	if n, err := st.Count(ctx); err == nil && n == 0 {
		logger.L().Warn("store_empty", "hint", "run generate first")
	}
	b := query.NewBuilder(st.Dialect())
	corpus, err := workload.ReadCorpusFile(cfg.CorpusPath(), b)
	if err != nil {
		return err
	}
	metrics.CorpusSize.Set(float64(len(corpus)))

	rep, closeRep := reporters(ctx, cfg)
	defer closeRep()
	bucket, err := harness.New(st, b, rep).Run(ctx, corpus)
	if err != nil {
		return err
	}
	report, err := harness.Summarize(bucket)
	if err != nil {
		return err
	}
	if _, err := report.WriteTo(stdout); err != nil {
		return bencherr.IO("stdout", "write report", err)
	}
	return nil
}
