package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/actionsum/focuswatch/internal/config"
	"github.com/actionsum/focuswatch/internal/daemon"
	"github.com/actionsum/focuswatch/internal/database"
	"github.com/actionsum/focuswatch/internal/logging"
	"github.com/actionsum/focuswatch/internal/reporter"
	"github.com/actionsum/focuswatch/internal/sink"
	"github.com/actionsum/focuswatch/internal/tracker"

	"go.uber.org/zap"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "run":
		if code := runWatcher(); code != 0 {
			os.Exit(code)
		}
	case "stop":
		stopWatcher()
	case "status":
		showStatus()
	case "report":
		generateReport()
	case "clear":
		clearJournal()
	case "version":
		fmt.Printf("focuswatch version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`focuswatch - sway window focus watcher for ActivityWatch

Usage:
  focuswatch [command] [options]

Commands:
  run                Watch focus changes and send heartbeats (default)
  stop               Stop a running watcher (needs FOCUSWATCH_PID_FILE)
  status             Show watcher status and the last journaled window
  report [period]    Focus time per app from the journal (day, week, month) [--json]
  clear              Clear the local journal
  version            Show version information
  help               Show this help message

Environment Variables:
  SWAYSOCK                   sway IPC socket path (required for run)
  FOCUSWATCH_AW_HOST         ActivityWatch host (default 127.0.0.1)
  FOCUSWATCH_AW_PORT         ActivityWatch port (default 5600)
  FOCUSWATCH_AW_TIMEOUT      Request timeout (default 10s)
  FOCUSWATCH_AW_RETRIES      Retries per request (default 3)
  FOCUSWATCH_HOSTNAME        Host identifier in bucket names
  FOCUSWATCH_JOURNAL_PATH    sqlite journal path (empty disables the journal)
  FOCUSWATCH_PID_FILE        PID file path
  FOCUSWATCH_LOG_LEVEL       debug, info, warn, error
  FOCUSWATCH_LOG_DEV         Human readable console logs (true/false)

Version: %s
`, version)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func loadOptionalConfig() *config.Config {
	cfg, err := config.LoadOptional()
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func newLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fatalf("Invalid log configuration: %v", err)
	}
	return logger
}

// runWatcher returns the process exit code so deferred cleanup runs first.
func runWatcher() int {
	cfg, err := config.New()
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		logger.Fatal("failed to check watcher status", zap.Error(err))
	}
	if running {
		logger.Fatal("watcher is already running", zap.Int("pid", pid))
	}

	var s sink.Sink = sink.NewClient(cfg, logger.Named("sink"))

	if cfg.JournalEnabled() {
		db, err := database.Connect(cfg.Journal.Path)
		if err != nil {
			logger.Fatal("failed to open journal", zap.Error(err))
		}
		defer db.Close()

		if err := db.Initialize(); err != nil {
			logger.Fatal("failed to initialize journal", zap.Error(err))
		}

		s = sink.NewJournal(s, database.NewRepository(db), logger.Named("journal"))
	}

	if err := dm.WritePID(); err != nil {
		logger.Fatal("failed to write PID file", zap.Error(err))
	}
	defer dm.RemovePID()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("starting focuswatch", zap.String("version", version))
	logger.Debug(cfg.String())

	svc := tracker.NewService(cfg, s, logger)
	if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("tracker stopped", zap.String("state", svc.State().String()), zap.Error(err))
		return 1
	}

	logger.Info("focuswatch stopped")
	return 0
}

func stopWatcher() {
	cfg := loadOptionalConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)

	if !dm.Enabled() {
		fatalf("FOCUSWATCH_PID_FILE is not set")
	}

	running, pid, err := dm.IsRunning()
	if err != nil {
		fatalf("Failed to check watcher status: %v", err)
	}

	if !running {
		fmt.Println("Watcher is not running")
		return
	}

	fmt.Printf("Stopping watcher (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		fatalf("Failed to stop watcher: %v", err)
	}

	fmt.Println("Stop signal sent")
}

func showStatus() {
	cfg := loadOptionalConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		fatalf("Failed to check watcher status: %v", err)
	}

	switch {
	case !dm.Enabled():
		fmt.Println("Status: unknown (FOCUSWATCH_PID_FILE is not set)")
	case running:
		fmt.Printf("Status: Running (PID: %d)\n", pid)
	default:
		fmt.Println("Status: Not running")
	}
	fmt.Printf("ActivityWatch: %s\n", cfg.BaseURL())
	fmt.Printf("Buckets: %s, %s\n", cfg.WindowBucket(), cfg.AFKBucket())

	if !cfg.JournalEnabled() {
		return
	}

	db, err := database.Connect(cfg.Journal.Path)
	if err != nil {
		fmt.Printf("\nCould not open journal: %v\n", err)
		return
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		fmt.Printf("\nCould not open journal: %v\n", err)
		return
	}

	repo := database.NewRepository(db)
	if latest, err := repo.GetLatest(); err == nil && latest != nil {
		fmt.Printf("\nLast Window:\n")
		fmt.Printf("  App: %s\n", latest.AppName)
		fmt.Printf("  Title: %s\n", latest.WindowTitle)
		fmt.Printf("  At: %s\n", latest.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	if undelivered, err := repo.CountUndelivered(); err == nil && undelivered > 0 {
		fmt.Printf("\nUndelivered heartbeats: %d\n", undelivered)
	}
}

func openJournal(cfg *config.Config) *database.DB {
	db, err := database.Connect(cfg.Journal.Path)
	if err != nil {
		fatalf("Failed to open journal: %v", err)
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		fatalf("Failed to initialize journal: %v", err)
	}
	return db
}

func generateReport() {
	periodType := "day"
	if len(os.Args) > 2 {
		periodType = os.Args[2]
	}

	jsonOutput := len(os.Args) > 3 && os.Args[3] == "--json"

	cfg := loadOptionalConfig()
	db := openJournal(cfg)
	defer db.Close()

	rep := reporter.New(database.NewRepository(db))

	report, err := rep.GenerateReport(periodType)
	if err != nil {
		fatalf("Failed to generate report: %v", err)
	}

	if jsonOutput {
		jsonStr, err := rep.FormatReportJSON(report)
		if err != nil {
			fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(jsonStr)
	} else {
		fmt.Println(rep.FormatReportText(report))
	}
}

func clearJournal() {
	cfg := loadOptionalConfig()

	fmt.Print("This will delete the local journal. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	db := openJournal(cfg)
	defer db.Close()

	if err := database.NewRepository(db).Clear(); err != nil {
		fatalf("Failed to clear journal: %v", err)
	}

	fmt.Println("Journal cleared successfully")
}
