// Command tsstore inspects a tsviewd SQLite store offline.
//
// Usage:
//
//	tsstore list --db path/to/tsview.db
//	tsstore show --db path/to/tsview.db --dataset DATASET_ID [--format json|jsonl]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bpowers/tsview/persistence/sqlitestore"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "list":
		if err := runList(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "show":
		if err := runShow(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `tsstore - inspect a tsviewd SQLite store

Usage:
  tsstore list --db <path>
      List every dataset with its row count, columns and descriptors

  tsstore show --db <path> --dataset <id> [--offset N] [--limit N] [--format json|jsonl]
      Show the rows of a dataset (default format: json)

Formats:
  json   - Output as a JSON array (default)
  jsonl  - Output as JSON Lines (one row per line)

Examples:
  tsstore list --db ./tsview.db
  tsstore show --db ./tsview.db --dataset power_1a2b3c4d
  tsstore show --db ./tsview.db --dataset power_1a2b3c4d --format jsonl | jq .values
`)
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dbPath == "" {
		return fmt.Errorf("--db is required")
	}

	store, err := sqlitestore.New(*dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	datasets, err := store.ListDatasets()
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	for _, ds := range datasets {
		fmt.Printf("%s\t%s\t%d rows\tseries=%s\n", ds.ID, ds.Name, ds.MaxLength, strings.Join(ds.SeriesCols, ","))
		for _, o := range ds.Ops {
			fmt.Printf("  opset %s\tplot=%s\toffset=%d\tlimit=%d\n", o.ID, strings.Join(o.Plot, ","), o.Offset, o.Limit)
		}
	}

	return nil
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to SQLite database")
	datasetID := fs.String("dataset", "", "dataset ID to display")
	offset := fs.Int("offset", 0, "first row to show")
	limit := fs.Int("limit", -1, "number of rows to show (default: all)")
	format := fs.String("format", "json", "output format: json or jsonl")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	if *datasetID == "" {
		return fmt.Errorf("--dataset is required")
	}
	if *format != "json" && *format != "jsonl" {
		return fmt.Errorf("--format must be 'json' or 'jsonl'")
	}

	store, err := sqlitestore.New(*dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	ds, err := store.GetDataset(*datasetID)
	if err != nil {
		return fmt.Errorf("get dataset: %w", err)
	}
	n := *limit
	if n < 0 {
		n = ds.MaxLength
	}
	rows, err := store.Rows(ds.ID, *offset, n)
	if err != nil {
		return fmt.Errorf("get rows: %w", err)
	}

	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "no rows found for dataset: %s\n", *datasetID)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch *format {
	case "json":
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case "jsonl":
		enc.SetIndent("", "")
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encode jsonl: %w", err)
			}
		}
	}

	return nil
}
