package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"spelltimer/internal/config"
	"spelltimer/internal/database"
	"spelltimer/internal/host"
	"spelltimer/internal/log"
	"spelltimer/internal/plugin"
	"spelltimer/internal/stream"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	configPath  string
	dbPath      string
	dataDir     string
	logFile     string
	interactive bool
	files       []string
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Error("GLOBAL PANIC recovered", "error", r, "stack", string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "spelltimer crashed: %v\n", r)
			os.Exit(1)
		}
	}()

	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML or TOML config file")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite file for exported variables (overrides config)")
	flag.StringVar(&opts.dataDir, "data", "", "directory holding the spell lookup file (overrides config)")
	flag.StringVar(&opts.logFile, "log", "", "write logs to this file instead of stdout")
	flag.BoolVar(&opts.interactive, "i", false, "start an interactive shell after replaying")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: spelltimer [flags] [stream.log ...]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Replays raw game streams through the spell timer plugin. Use - for stdin.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("spelltimer %s (%s, %s)\n", version, commit, date)
		os.Exit(0)
	}
	opts.files = flag.Args()
	return opts
}

func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if opts.dbPath != "" {
		cfg.Harness.Database = opts.dbPath
	}
	if opts.dataDir != "" {
		cfg.Harness.DataDir = opts.dataDir
	}
	if opts.logFile != "" {
		cfg.Harness.LogFile = opts.logFile
	}
	return cfg, nil
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if cfg.Harness.LogFile != "" {
		if err := log.SetFileOutput(cfg.Harness.LogFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not log to %s: %v\n", cfg.Harness.LogFile, err)
		}
	} else {
		log.SetOutput(os.Stderr)
	}
	defer log.Close()
	if err := log.SetLevel(cfg.Harness.LogLevel); err != nil {
		return err
	}

	decoder, err := stream.NewDecoder(cfg.Harness.Encoding)
	if err != nil {
		return err
	}

	db := database.NewDatabase()
	if err := db.OpenDatabase(cfg.Harness.Database); err != nil {
		return err
	}
	defer db.CloseDatabase()

	session, err := db.StartSession()
	if err != nil {
		return err
	}
	log.Info("session started", "id", session, "database", cfg.Harness.Database)

	var out io.Writer = os.Stdout
	var sh *shell
	if opts.interactive {
		if sh, err = newShell(); err != nil {
			return err
		}
		defer sh.Close()
		out = sh.Stdout()
	}

	console := host.NewConsole(out,
		host.WithStore(db, session),
		host.WithDataDir(cfg.Harness.DataDir),
		host.WithColor(host.IsTerminal(os.Stdout)),
	)
	p := plugin.New(cfg.Plugin)
	p.Initialize(console)
	dispatcher := stream.NewDispatcher(p)

	for _, name := range opts.files {
		if err := replayFile(ctx, name, dispatcher, decoder); err != nil {
			return err
		}
	}

	if sh != nil {
		return sh.Run(ctx, p, dispatcher)
	}

	p.ParseInput(cfg.Plugin.Commands[0])
	if n := console.Failures(); n > 0 {
		return fmt.Errorf("%d variables could not be stored", n)
	}
	return nil
}
