// Command tsviewd serves the dataset, descriptor, window and forecast API
// over a SQLite store.
//
// Usage:
//
//	tsviewd [--addr :8000] [--db tsview.db] [--prefix /tsapi/v1] [--seed-dir DIR]
//
// Every flag falls back to an environment variable: TSVIEWD_ADDR, TSVIEWD_DB,
// TSVIEWD_PREFIX and TSVIEWD_SEED_DIR.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bpowers/tsview/importer"
	"github.com/bpowers/tsview/internal/logging"
	"github.com/bpowers/tsview/persistence/sqlitestore"
	"github.com/bpowers/tsview/server"
)

const shutdownTimeout = 10 * time.Second

var logger = logging.For("tsviewd")

type config struct {
	addr    string
	db      string
	prefix  string
	seedDir string
}

func getenvOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFlags(args []string, getenv func(string) string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("tsviewd", flag.ContinueOnError)
	fs.StringVar(&cfg.addr, "addr", getenvOr(getenv, "TSVIEWD_ADDR", ":8000"), "listen address")
	fs.StringVar(&cfg.db, "db", getenvOr(getenv, "TSVIEWD_DB", "tsview.db"), "SQLite database path (:memory: for a throwaway store)")
	fs.StringVar(&cfg.prefix, "prefix", getenvOr(getenv, "TSVIEWD_PREFIX", server.DefaultPrefix), "API path prefix")
	fs.StringVar(&cfg.seedDir, "seed-dir", getenvOr(getenv, "TSVIEWD_SEED_DIR", ""), "import every CSV and XLSX file under this directory at start-up")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.db == "" {
		return config{}, fmt.Errorf("--db is required")
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: listen: %v\n", err)
		os.Exit(1)
	}
	if err := run(ctx, cfg, ln); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run serves the API on ln until ctx is done, then shuts down gracefully.
func run(ctx context.Context, cfg config, ln net.Listener) error {
	store, err := sqlitestore.New(cfg.db)
	if err != nil {
		ln.Close()
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	srv := server.New(store, server.WithPrefix(cfg.prefix))
	if cfg.seedDir != "" {
		if err := seed(srv, cfg.seedDir); err != nil {
			ln.Close()
			return err
		}
	}

	hs := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", ln.Addr().String(), "prefix", cfg.prefix, "db", cfg.db)
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func seed(srv *server.Server, dir string) error {
	results, err := importer.ImportFS(os.DirFS(dir), ".")
	if err != nil {
		return fmt.Errorf("seed %s: %w", dir, err)
	}
	for _, res := range results {
		if err := srv.Import(res); err != nil {
			return fmt.Errorf("seed %s: %w", dir, err)
		}
	}
	logger.Info("seeded datasets", "dir", dir, "count", len(results))
	return nil
}
