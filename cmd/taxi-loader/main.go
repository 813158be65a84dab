package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"gopkg.in/alecthomas/kingpin.v2"

	"Shopify/taxi-parquet-loader/config"
	"Shopify/taxi-parquet-loader/ingest"
)

type Options struct {
	// Path to the YAML configuration file. Defaults are used when empty.
	ConfigFile string
	LogLevel   string

	// Overrides for values from the configuration file.
	BatchSize        int64
	SourcePath       string
	DestinationTable string

	ListenAddress string
	Progress      bool
}

func main() {
	app := kingpin.New("taxi-loader", "Load NYC taxi trip parquet files into BigQuery.")
	opts := Options{}
	opts.BindFlags(app)

	serveCmd := app.Command("serve", "Serve pipeline invocations over HTTP.")
	serveCmd.Flag("http.listen-address", "Address to listen on for invocations and metrics.").
		Default(":8080").StringVar(&opts.ListenAddress)

	runCmd := app.Command("run", "Run the pipeline once and exit.")
	runCmd.Flag("progress", "Show a progress bar while loading batches.").
		Default("true").BoolVar(&opts.Progress)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	logger := newLogger(opts.LogLevel)

	conf, err := opts.config()
	if err != nil {
		level.Error(logger).Log("msg", "invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch command {
	case serveCmd.FullCommand():
		err = serve(ctx, logger, conf, opts.ListenAddress)
	case runCmd.FullCommand():
		err = runOnce(ctx, logger, conf, opts.Progress)
	}
	if err != nil {
		level.Error(logger).Log("err", err)
		cancel()
		os.Exit(1)
	}
}

func (o *Options) BindFlags(app *kingpin.Application) {
	app.Flag("config.file", "Path to the YAML configuration file.").
		Default("").StringVar(&o.ConfigFile)
	app.Flag("log.level", "Only log messages with the given severity or above.").
		Default("info").EnumVar(&o.LogLevel, "debug", "info", "warn", "error")
	app.Flag("batch-size", "Maximum number of rows decoded and loaded at once.").
		Default("0").Int64Var(&o.BatchSize)
	app.Flag("source.path", "Path of the parquet file inside the source bucket.").
		Default("").StringVar(&o.SourcePath)
	app.Flag("destination.table", "Destination table as [project.]dataset.table.").
		Default("").StringVar(&o.DestinationTable)
}

func (o *Options) config() (config.Config, error) {
	conf, err := config.Load(o.ConfigFile)
	if err != nil {
		return config.Config{}, err
	}
	if o.BatchSize != 0 {
		conf.BatchSize = o.BatchSize
	}
	if o.SourcePath != "" {
		conf.Source.Path = o.SourcePath
	}
	if o.DestinationTable != "" {
		conf.Destination.Table = o.DestinationTable
	}
	return conf, conf.Validate()
}

func newLogger(lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	switch lvl {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func serve(ctx context.Context, logger log.Logger, conf config.Config, listenAddress string) error {
	deps, err := setup(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	pipeline := newPipeline(logger, prometheus.DefaultRegisterer, deps, conf)
	router := ingest.NewRouter(ingest.NewHandler(logger, pipeline), prometheus.DefaultGatherer)
	srv := &http.Server{
		Addr:              listenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "listening for invocations", "address", listenAddress)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	level.Info(logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runOnce(ctx context.Context, logger log.Logger, conf config.Config, progress bool) error {
	deps, err := setup(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	var options []ingest.PipelineOption
	if progress {
		bar := progressbar.Default(-1, "loading batches")
		defer bar.Close()
		options = append(options, ingest.WithBatchObserver(func(event ingest.BatchEvent) {
			_ = bar.Add64(event.Cleaned.NumRead)
		}))
	}

	result := newPipeline(logger, prometheus.NewRegistry(), deps, conf, options...).Run(ctx)
	if !result.OK() {
		return result.Err()
	}
	level.Info(logger).Log("msg", result.Message())
	return nil
}

func newPipeline(logger log.Logger, reg prometheus.Registerer, deps *dependencies, conf config.Config, options ...ingest.PipelineOption) *ingest.Pipeline {
	return ingest.NewPipeline(logger, reg, deps.source, deps.destination, ingest.Options{
		Path:      conf.Source.Path,
		Table:     conf.Destination.Table,
		BatchSize: conf.BatchSize,
	}, options...)
}
