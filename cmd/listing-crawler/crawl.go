package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/listing-crawler/pkg/cache"
	"github.com/Sternrassler/listing-crawler/pkg/config"
	"github.com/Sternrassler/listing-crawler/pkg/listing"
	"github.com/Sternrassler/listing-crawler/pkg/logging"
	"github.com/Sternrassler/listing-crawler/pkg/metrics"
	"github.com/Sternrassler/listing-crawler/pkg/pagination"
	"github.com/Sternrassler/listing-crawler/pkg/record"
	"github.com/Sternrassler/listing-crawler/pkg/sink"
	"github.com/Sternrassler/listing-crawler/pkg/status"
)

// Listing categories and transaction statuses accepted on the command line.
var (
	kinds    = []string{"apartment", "commercial_shop", "villa", "office", "industrial_agricultural", "old_house"}
	statuses = []string{"buy", "rent"}
)

type crawlOptions struct {
	ext         string
	filename    string
	mode        string
	logFile     string
	logLevel    string
	pretty      bool
	redisURL    string
	cacheTTL    time.Duration
	metricsAddr string
	baseURL     string
}

func newRootCmd() *cobra.Command {
	var o crawlOptions

	cmd := &cobra.Command{
		Use:   "listing-crawler <city> <type> <status>",
		Short: "Crawl property listings from ariamarz.com into a CSV or XLSX file.",
		Long: "Crawl property listings from ariamarz.com into a CSV or XLSX file.\n\n" +
			"type is one of: " + strings.Join(kinds, ", ") + "\n" +
			"status is one of: " + strings.Join(statuses, ", "),
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return crawl(cmd, args, &o)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.ext, "ext", "e", "csv", "export format (csv or xlsx)")
	flags.StringVarP(&o.filename, "filename", "f", "data", "output file name without extension")
	flags.StringVar(&o.mode, "mode", "a", "write mode for the first batch: a (append) or w (overwrite)")
	flags.StringVar(&o.logFile, "log-file", logging.DefaultLogFile, "log file; empty logs to stderr")
	flags.StringVar(&o.logLevel, "log-level", string(logging.LevelInfo), "debug, info, warn, error or critical")
	flags.BoolVar(&o.pretty, "pretty", false, "human-readable log lines")
	flags.StringVar(&o.redisURL, "redis-url", getEnv("REDIS_URL", ""), "redis address or URL for the page cache and crawl status")
	flags.DurationVar(&o.cacheTTL, "cache-ttl", cache.DefaultTTL, "how long fetched pages stay cached")
	flags.StringVar(&o.metricsAddr, "metrics-addr", getEnv("METRICS_ADDR", ""), "serve Prometheus metrics on this address")
	flags.Int("concurrency", config.DefaultConcurrencyLimit, "pages fetched per round (1-10)")
	flags.Int("timeout", config.DefaultTimeoutSeconds, "per-page timeout in seconds (5-15)")
	flags.Int("max-retry", config.DefaultMaxRetry, "attempts per page (1-4)")
	flags.Float64("retry-delay", config.DefaultRetryDelaySeconds, "seconds to wait before a retry (0.5-2.0)")
	flags.Int("error-threshold", config.DefaultConsecutiveErrorThreshold, "consecutive failures that abort the crawl (5-15)")
	flags.StringVar(&o.baseURL, "base-url", "", "send requests to this host instead of the live site")
	_ = flags.MarkHidden("base-url")

	cmd.AddCommand(newStatusCmd())
	return cmd
}

func crawl(cmd *cobra.Command, args []string, o *crawlOptions) error {
	city := strings.ToLower(args[0])
	kind := strings.ToLower(args[1])
	state := strings.ToLower(args[2])
	ext := strings.ToLower(o.ext)

	if !slices.Contains(kinds, kind) {
		return fmt.Errorf("invalid type %q (choose from %s)", args[1], strings.Join(kinds, ", "))
	}
	if !slices.Contains(statuses, state) {
		return fmt.Errorf("invalid status %q (choose from %s)", args[2], strings.Join(statuses, ", "))
	}
	if !slices.Contains(sink.Formats, ext) {
		return fmt.Errorf("invalid ext %q (choose from %s)", o.ext, strings.Join(sink.Formats, ", "))
	}
	mode, err := sink.ParseMode(o.mode)
	if err != nil {
		return err
	}

	logOut, closeLog, err := logOutput(o.logFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	logging.Setup(logging.Config{Level: logging.LogLevel(o.logLevel), Pretty: o.pretty, Output: logOut})
	logger := logging.NewLogger("cli")

	cfg, err := crawlConfig(cmd, config.URLFor(state, kind, city))
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if o.metricsAddr != "" {
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		defer stopMetrics()
		go func() {
			if err := metrics.Serve(metricsCtx, o.metricsAddr, logging.NewLogger("metrics")); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	sourceOpts := []listing.Option{listing.WithLogger(logging.NewLogger("listing"))}
	if o.baseURL != "" {
		sourceOpts = append(sourceOpts, listing.WithBaseURL(o.baseURL))
	}
	schedulerOpts := []pagination.Option{pagination.WithLogger(logging.NewLogger("scheduler"))}

	if o.redisURL != "" {
		client, err := connectRedis(ctx, o.redisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		logger.Info().Msg("Connected to Redis")

		sourceOpts = append(sourceOpts, listing.WithCache(cache.NewManager(client), o.cacheTTL))
		schedulerOpts = append(schedulerOpts, pagination.WithReporter(
			status.NewStore(client, logging.NewLogger("status"), status.DefaultRetention),
		))
	}

	file := config.FileName(o.filename, ext)
	scheduler := pagination.NewScheduler[record.Record](listing.NewSource(cfg, sourceOpts...), cfg, schedulerOpts...)

	logger.Info().Str("target", cfg.Target).Str("file", file).Msg("Starting to scrape")

	written := 0
	err = scheduler.Run(ctx, func(batch []record.Record) error {
		if err := sink.Write(file, batch, mode); err != nil {
			return err
		}
		mode = sink.Append
		written += len(batch)
		return nil
	})

	fmt.Fprintf(cmd.OutOrStdout(), "%d records written to %s\n", written, file)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pagination.ErrCircuitBreakerTripped):
		logging.Critical(&logger).Err(err).Msg("Too many consecutive errors. Halting the scraping process")
	case errors.Is(err, context.Canceled):
		logger.Warn().Msg("Crawl interrupted")
	default:
		logger.Error().Err(err).Msg("Crawl failed")
	}
	return err
}

// crawlConfig layers CRAWL_* environment values under explicitly set flags.
func crawlConfig(cmd *cobra.Command, target string) (config.Config, error) {
	cfg, err := config.FromEnv(target, os.LookupEnv)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	var opts []config.Option
	intFlags := []struct {
		name string
		opt  func(int) config.Option
	}{
		{"concurrency", config.WithConcurrencyLimit},
		{"timeout", config.WithTimeout},
		{"max-retry", config.WithMaxRetry},
		{"error-threshold", config.WithConsecutiveErrorThreshold},
	}
	for _, f := range intFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetInt(f.name)
		if err != nil {
			return config.Config{}, err
		}
		opts = append(opts, f.opt(v))
	}
	if flags.Changed("retry-delay") {
		v, err := flags.GetFloat64("retry-delay")
		if err != nil {
			return config.Config{}, err
		}
		opts = append(opts, config.WithRetryDelay(v))
	}

	if len(opts) == 0 {
		return cfg, nil
	}
	return cfg.With(opts...)
}

// logOutput opens the log destination. An empty path logs to fallback.
func logOutput(path string, fallback io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return fallback, func() {}, nil
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// connectRedis accepts a plain host:port or a redis:// URL.
func connectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}
