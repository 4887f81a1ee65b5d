package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/syslogship/internal/cliconfig"
	"github.com/bft-labs/syslogship/pkg/log"
	"github.com/bft-labs/syslogship/pkg/syslogship"
	"github.com/bft-labs/syslogship/plugins/configwatcher"
)

const helpDescription = `
Ship newline-delimited log lines to a syslog receiver.

Every input line becomes one log record, framed as RFC 5424 or RFC 3164 and
sent over TCP (optionally TLS), UDP, HTTP or Redis. When the backlog grows
past --throttling-limit, the throttling strategy discards records, bounds
their send time or delays them.

Configure via $HOME/.syslogship/config.toml, SYSLOGSHIP_* environment
variables or flags. Changes to the [throttling] table of the config file
apply without a restart.
`

var exampleUsage = strings.TrimSpace(`
  tail -F /var/log/app.log | syslogship --address logs.example.com:6514 --tls
  syslogship --input events.log --protocol http --url https://logs.example.com/ingest --gzip
  syslogship --throttling-limit 1000 --throttling-strategy discard-on-fixed-timeout --throttling-delay 250
`)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "syslogship",
		Short:         "Ship log lines to a syslog receiver with backlog throttling",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			watchedPath := ""
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
				watchedPath = cfgFile
			}

			// Environment overrides the file; flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := log.NewConsoleLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return err
			}

			logCfg := cfg
			if logCfg.AuthKey != "" {
				logCfg.AuthKey = "*****"
			}
			zl := logger.Logger()
			zl.Info().Interface("config", logCfg).Str("config_file", watchedPath).Msg("configuration")

			return run(cmd.Context(), cfg, watchedPath, logger)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.syslogship/config.toml)")
	f.StringVar(&cfg.Input, "input", cfg.Input, "file to read lines from (default: stdin)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	f.StringVar(&cfg.AppName, "app-name", cfg.AppName, "APP-NAME header field")
	f.StringVar(&cfg.Hostname, "hostname", cfg.Hostname, "HOSTNAME header field (default: os hostname)")
	f.StringVar(&cfg.Facility, "facility", cfg.Facility, "syslog facility")
	f.StringVar(&cfg.Severity, "severity", cfg.Severity, "syslog severity of every line")
	f.StringVar(&cfg.RFC, "rfc", cfg.RFC, "message format: 5424 or 3164")
	f.BoolVar(&cfg.SplitOnNewLine, "split-on-newline", cfg.SplitOnNewLine, "send each line of a rendered message separately")
	f.IntVar(&cfg.MaxLength, "max-length", cfg.MaxLength, "maximum message length in bytes (0: unlimited)")
	f.BoolVar(&cfg.UseBOM, "use-bom", cfg.UseBOM, "prefix RFC 5424 messages with a UTF-8 BOM")
	f.StringVar(&cfg.Layout, "layout", cfg.Layout, "text/template rendered for every record")
	f.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "maximum records waiting to be sent")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "records sent concurrently")

	f.StringVar(&cfg.Protocol, "protocol", cfg.Protocol, "transport: tcp, udp, http or redis")
	f.StringVar(&cfg.Address, "address", cfg.Address, "receiver host:port (tcp, udp, redis)")
	f.BoolVar(&cfg.TLS, "tls", cfg.TLS, "use TLS for tcp")
	f.BoolVar(&cfg.TLSInsecure, "tls-insecure", cfg.TLSInsecure, "skip TLS certificate verification")
	f.StringVar(&cfg.Framing, "framing", cfg.Framing, "tcp framing: octet-counting or non-transparent")
	f.IntVar(&cfg.Retries, "retries", cfg.Retries, "tcp reconnect attempts per message")
	f.StringVar(&cfg.URL, "url", cfg.URL, "endpoint for the http transport")
	f.StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "bearer token for the http transport")
	f.BoolVar(&cfg.Gzip, "gzip", cfg.Gzip, "gzip http request bodies")
	f.StringVar(&cfg.RedisKey, "redis-key", cfg.RedisKey, "list, stream or channel for the redis transport")
	f.StringVar(&cfg.RedisMode, "redis-mode", cfg.RedisMode, "redis mode: list, stream or pubsub")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "dial and http request timeout")

	f.IntVar(&cfg.ThrottlingLimit, "throttling-limit", cfg.ThrottlingLimit, "backlog size that triggers throttling (0: disabled)")
	f.StringVar(&cfg.ThrottlingStrategy, "throttling-strategy", cfg.ThrottlingStrategy, "none, discard, discard-on-fixed-timeout, discard-on-percentage-timeout, defer-for-fixed-time, defer-for-percentage-time")
	f.StringVar(&cfg.ThrottlingDelay, "throttling-delay", cfg.ThrottlingDelay, "milliseconds (fixed) or percent of the backlog (percentage)")
	f.BoolVar(&cfg.ThrottlingSpinWait, "throttling-spin-wait", cfg.ThrottlingSpinWait, "busy-wait instead of sleeping when deferring")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "syslogship: %v\n", err)
		os.Exit(1)
	}
}

// run ships input lines until EOF or a signal. On EOF it waits for the
// backlog to drain before stopping.
func run(ctx context.Context, cfg cliconfig.Config, configPath string, logger *log.ZerologAdapter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, closeInput, err := openInput(cfg.Input)
	if err != nil {
		return err
	}
	defer closeInput()

	s, err := syslogship.New(cfg.ShipperConfig(configPath),
		syslogship.WithLogger(logger),
		configwatcher.WithDefaultConfigWatcher(),
	)
	if err != nil {
		return fmt.Errorf("create syslogship: %w", err)
	}
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start syslogship: %w", err)
	}

	var sent, failed atomic.Int64
	completion := func(err error) {
		if err != nil {
			failed.Add(1)
			return
		}
		sent.Add(1)
	}

	readErr := make(chan error, 1)
	go func() {
		readErr <- readLines(ctx, input, func(line string) error {
			err := s.Log(s.NewEvent(-1, line), completion)
			if errors.Is(err, syslogship.ErrQueueFull) {
				return nil
			}
			return err
		})
	}()

	select {
	case <-ctx.Done():
		logger.Info("received signal, stopping")
	case err := <-readErr:
		if err != nil {
			logger.Error("reading input failed", log.Err(err))
		}
		drain(ctx, s)
	}

	if err := s.Stop(); err != nil {
		return fmt.Errorf("stop syslogship: %w", err)
	}
	logger.Info("stopped",
		log.Int64("sent", sent.Load()),
		log.Int64("failed", failed.Load()),
	)
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// readLines calls fn for every non-empty line of r.
func readLines(ctx context.Context, r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// drain waits until nothing is queued or in flight.
func drain(ctx context.Context, s *syslogship.Shipper) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for s.Waiting() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
