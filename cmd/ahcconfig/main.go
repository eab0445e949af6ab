package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/xuesi9527/async-http-client/config"
	"github.com/xuesi9527/async-http-client/internal/application"
	"github.com/xuesi9527/async-http-client/internal/logging"
	"github.com/xuesi9527/async-http-client/internal/settings"
)

var signalNotify = signal.Notify

type cli struct {
	app *kingpin.Application

	configFile     *string
	propertiesDirs *[]string
	defines        *map[string]string
	logLevel       *string

	get      *kingpin.CmdClause
	getKey   *string
	getType  *string
	getLayer *bool

	keys *kingpin.CmdClause

	serve          *kingpin.CmdClause
	port           *string
	watch          *bool
	watchSet       bool
	rateLimitRPS   *float64
	rateLimitBurst *int
}

func newCLI() *cli {
	c := &cli{}
	c.app = kingpin.New("ahcconfig", "Inspect and serve layered AsyncHttpClient configuration")
	c.configFile = c.app.Flag("config", "Path to YAML settings file").String()
	c.propertiesDirs = c.app.Flag("properties-dir", "Directory searched for ahc.properties (repeatable, first match wins)").Strings()
	c.defines = c.app.Flag("define", "Runtime override key=value (repeatable)").Short('D').StringMap()
	c.logLevel = c.app.Flag("log-level", "Log level: debug, info, warn, error").String()

	c.get = c.app.Command("get", "Print the resolved value of a key")
	c.getKey = c.get.Arg("key", "Property key").Required().String()
	c.getType = c.get.Flag("type", "Parse the value as string, int or bool").Default("string").Enum("string", "int", "bool")
	c.getLayer = c.get.Flag("layer", "Also print the layer the value came from").Bool()

	c.keys = c.app.Command("keys", "Print every key defined by ahc.properties or the packaged defaults with its resolved value")

	c.serve = c.app.Command("serve", "Run the admin HTTP server")
	c.port = c.serve.Flag("port", "HTTP port exposed by the admin server").String()
	c.watch = c.serve.Flag("watch", "Reload when ahc.properties changes").IsSetByUser(&c.watchSet).Bool()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	return c
}

func (c *cli) overrides() *settings.CLIOverrides {
	overrides := &settings.CLIOverrides{
		ConfigFile:     *c.configFile,
		PropertiesDirs: *c.propertiesDirs,
	}
	if *c.logLevel != "" {
		overrides.LogLevel = c.logLevel
	}
	if *c.port != "" {
		overrides.Port = c.port
	}
	if c.watchSet {
		overrides.Watch = c.watch
	}
	if *c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.rateLimitRPS
	}
	if *c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.rateLimitBurst
	}
	return overrides
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	c := newCLI()
	c.app.UsageWriter(stderr)
	c.app.ErrorWriter(stderr)

	command, err := c.app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "ahcconfig: %v\n", err)
		return 2
	}

	s, err := settings.Load(c.overrides())
	if err != nil {
		fmt.Fprintf(stderr, "failed to load settings: %v\n", err)
		return 1
	}

	logger, err := logging.New(s.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	for key, value := range *c.defines {
		config.SystemProperties().SetProperty(key, value)
	}

	cfg, err := application.NewConfig(s, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	switch command {
	case c.get.FullCommand():
		return runGet(cfg, *c.getKey, *c.getType, *c.getLayer, stdout, stderr)
	case c.keys.FullCommand():
		return runKeys(cfg, stdout)
	case c.serve.FullCommand():
		return runServe(s, cfg, logger)
	}
	return 2
}

func runGet(cfg *config.Config, key, kind string, showLayer bool, stdout, stderr io.Writer) int {
	res := cfg.Lookup(key)

	var out string
	switch kind {
	case "int":
		n, err := cfg.GetInt(key)
		if err != nil {
			return reportLookupError(stderr, err)
		}
		out = fmt.Sprint(n)
	case "bool":
		b, err := cfg.GetBoolean(key)
		if err != nil {
			return reportLookupError(stderr, err)
		}
		out = fmt.Sprint(b)
	default:
		if !res.Found {
			return reportLookupError(stderr, fmt.Errorf("%w: %s", config.ErrMissingKey, key))
		}
		out = res.Value
	}

	if showLayer {
		fmt.Fprintf(stdout, "%s\t%s\n", out, res.Layer)
		return 0
	}
	fmt.Fprintln(stdout, out)
	return 0
}

func reportLookupError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "%v\n", err)
	if errors.Is(err, config.ErrMissingKey) {
		return 3
	}
	return 1
}

func runKeys(cfg *config.Config, stdout io.Writer) int {
	for _, key := range cfg.Keys() {
		value, _ := cfg.GetString(key)
		fmt.Fprintf(stdout, "%s=%s\n", key, value)
	}
	return 0
}

func runServe(s settings.Settings, cfg *config.Config, logger *zap.Logger) int {
	app, err := application.New(s, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return 1
	}

	if err := app.Start(); err != nil {
		logger.Error("failed to start server", zap.Error(err))
		return 1
	}

	shutdown(app, s.ShutdownGracePeriod, logger)
	return 0
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdown(app shutdowner, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
