package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dengarop/herdbook/internal/api"
	"github.com/dengarop/herdbook/internal/config"
	"github.com/dengarop/herdbook/internal/db"
	"github.com/dengarop/herdbook/internal/session"
	"github.com/dengarop/herdbook/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

const usageText = `Usage: herdbook [-config <path>] [-log <path>] <command> [flags]

Commands:
  login          authenticate against the registry backend
  logout         discard the stored session
  cows           list registered cattle
  owners         list registered owners
  reports        list field reports
  reply          reply to a field report
  verifications  list field verification logs
  register       register a new animal
  transfer       transfer ownership of an animal
  delete         delete a cattle record
  receipt        download a registration receipt PDF
  next-tag       preview the next tag the backend will assign

Run 'herdbook <command> -h' for command flags.
`

// app bundles the shared dependencies every command needs.
type app struct {
	cfg config.Config
	db  *sql.DB
}

// loadSession builds the session from persisted state. Commands that talk
// to the backend fail early with a login hint when none exists.
func (a *app) loadSession(ctx context.Context) (*session.Session, error) {
	saved, err := store.GetSession(ctx, a.db)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if saved == nil {
		return nil, session.ErrNotAuthenticated
	}
	sess := session.New(saved.Token, saved.APIBase)
	if err := sess.Valid(time.Now()); err != nil {
		return nil, err
	}
	return sess, nil
}

// client builds an authenticated backend client or fails with a login hint.
func (a *app) client(ctx context.Context) (*api.Client, error) {
	sess, err := a.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	return api.New(sess, a.cfg.HTTPTimeout), nil
}

func main() {
	// Global flags come before the subcommand.
	args := os.Args[1:]
	configPath := ""
	logPath := ""
global:
	for len(args) > 0 {
		switch args[0] {
		case "-config":
			if len(args) < 2 {
				fmt.Fprintln(os.Stderr, "-config requires a path")
				os.Exit(2)
			}
			configPath = args[1]
			args = args[2:]
		case "-log":
			if len(args) < 2 {
				fmt.Fprintln(os.Stderr, "-log requires a path")
				os.Exit(2)
			}
			logPath = args[1]
			args = args[2:]
		case "-h", "-help", "--help":
			fmt.Fprint(os.Stdout, usageText)
			os.Exit(0)
		default:
			break global
		}
	}

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	closeLog, err := setupLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open local database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg, db: database}
	ctx := context.Background()

	cmd, cmdArgs := args[0], args[1:]
	if err := a.run(ctx, cmd, cmdArgs); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			fmt.Fprintln(os.Stderr, "Not logged in or session expired. Run 'herdbook login' first.")
			os.Exit(1)
		}
		slog.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.runLogin(ctx, args)
	case "logout":
		return a.runLogout(ctx, args)
	case "cows":
		return a.runCows(ctx, args)
	case "owners":
		return a.runOwners(ctx, args)
	case "reports":
		return a.runReports(ctx, args)
	case "reply":
		return a.runReply(ctx, args)
	case "verifications":
		return a.runVerifications(ctx, args)
	case "register":
		return a.runRegister(ctx, args)
	case "transfer":
		return a.runTransfer(ctx, args)
	case "delete":
		return a.runDelete(ctx, args)
	case "receipt":
		return a.runReceipt(ctx, args)
	case "next-tag":
		return a.runNextTag(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", cmd)
	}
}
