// Command pecunia is a CLI client for IEX Cloud stock data with optional
// persistence of price observations into a local SQLite database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/elbart/pecunia/internal/config"
	"github.com/elbart/pecunia/internal/iexcloud"
	"github.com/elbart/pecunia/internal/ingest"
	"github.com/elbart/pecunia/internal/scheduler"
	"github.com/elbart/pecunia/internal/store"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `pecunia - command line client for IEX Cloud

Usage:
  pecunia [flags] get company SYMBOL
  pecunia [flags] get intraday-prices SYMBOL
  pecunia [flags] get historical-prices SYMBOL DATE        (DATE: YYYYMMDD)
  pecunia [flags] get-batch historical-prices -symbols A,B -from YYYY-MM-DD -to YYYY-MM-DD [-concurrency N]
  pecunia [flags] watch

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "", "path to config.yaml (default: <config dir>/config.yaml)")
	authPath := flag.String("auth", "", "path to auth.json (default: <config dir>/auth.json)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, *authPath)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if err := run(cfg, flag.Args()); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

// loadConfig resolves config and auth file paths, loads both, and validates
// the result. The auth file only fills the token when the config (and its
// env overrides) did not provide one.
func loadConfig(configPath, authPath string) (*config.Config, error) {
	if configPath == "" {
		if v := os.Getenv("PECUNIA_CONFIG"); v != "" {
			configPath = v
		} else {
			configPath = filepath.Join(config.DefaultDir(), "config.yaml")
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cfg.IEX.Token == "" {
		if authPath == "" {
			authPath = filepath.Join(config.DefaultDir(), "auth.json")
		}
		log.Printf("[INFO] reading authentication data from %s", authPath)
		auth, err := config.LoadAuth(authPath)
		if err != nil {
			return nil, err
		}
		cfg.IEX.Token = auth.APIToken
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, args []string) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	switch args[0] {
	case "get":
		if len(args) < 3 {
			return fmt.Errorf("usage: pecunia get {company|intraday-prices|historical-prices} SYMBOL [DATE]")
		}
		return runGet(cfg, client, args[1], args[2:])
	case "get-batch":
		if len(args) < 2 || args[1] != "historical-prices" {
			return fmt.Errorf("usage: pecunia get-batch historical-prices -symbols A,B -from YYYY-MM-DD -to YYYY-MM-DD")
		}
		return runGetBatch(cfg, client, args[2:])
	case "watch":
		return runWatch(cfg, client)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runGet(cfg *config.Config, client *iexcloud.Client, resource string, args []string) error {
	ctx := context.Background()
	symbol := args[0]

	if resource == "company" {
		profile, _, err := client.Company(ctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch company for %s: %w", symbol, err)
		}
		return printJSON(profile)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	ing := ingest.New(client, st)

	switch resource {
	case "intraday-prices":
		observations, err := ing.Intraday(ctx, symbol)
		if err != nil {
			return err
		}
		return printJSON(observations)
	case "historical-prices":
		if len(args) < 2 {
			return fmt.Errorf("usage: pecunia get historical-prices SYMBOL DATE (DATE: YYYYMMDD)")
		}
		observations, err := ing.Historical(ctx, symbol, args[1])
		if err != nil {
			return err
		}
		return printJSON(observations)
	default:
		return fmt.Errorf("unknown resource %q", resource)
	}
}

func runGetBatch(cfg *config.Config, client *iexcloud.Client, args []string) error {
	fs := flag.NewFlagSet("get-batch historical-prices", flag.ExitOnError)
	symbolsCSV := fs.String("symbols", "", "comma-separated stock symbols, e.g. AAPL,MSFT")
	from := fs.String("from", "", "range start in YYYY-MM-DD (inclusive)")
	to := fs.String("to", "", "range end in YYYY-MM-DD (inclusive)")
	concurrency := fs.Int("concurrency", 1, "parallel fetch/persist cycles (1 = sequential)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *symbolsCSV == "" || *from == "" || *to == "" {
		return fmt.Errorf("-symbols, -from and -to are required")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	ing := ingest.New(client, st, ingest.WithConcurrency(*concurrency))

	results, err := ing.HistoricalBatch(context.Background(), splitCSV(*symbolsCSV), *from, *to)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runWatch(cfg *config.Config, client *iexcloud.Client) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	ing := ingest.New(client, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx, ing, cfg.Watch.Symbols)
	if err := sched.Register(cfg.Watch.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, ingesting now")
		go sched.RunNow()
	}

	log.Printf("[INFO] watching %v on schedule %q. Press Ctrl+C to stop.", cfg.Watch.Symbols, cfg.Watch.Cron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}

func newClient(cfg *config.Config) (*iexcloud.Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	httpClient := &http.Client{
		Timeout:   time.Duration(cfg.HTTP.TimeoutSec) * time.Second,
		Transport: transport,
	}

	options := []iexcloud.Option{iexcloud.WithHTTPClient(httpClient)}
	if cfg.IEX.BaseURL != "" {
		options = append(options, iexcloud.WithBaseURL(cfg.IEX.BaseURL))
	}
	return iexcloud.NewClient(cfg.IEX.Token, options...)
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database.Path == "" {
		log.Println("[WARN] no database configured, prices will not be persisted")
		return store.NewNoopStore(), nil
	}
	return store.NewSQLiteStore(cfg.Database.Path)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
