// Command billingfocusctl is an operator CLI over the same store
// billingfocusd runs against. It has no wire protocol to the daemon —
// both binaries link the same coordinator package and talk to
// PostgreSQL directly, since the gRPC/Connect plugin contract the
// teacher ships is not reproducible without running protoc (see
// DESIGN.md). Subcommands: trigger, cancel, retry, status, stats.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rshade/billingfocus/config"
	"github.com/rshade/billingfocus/coordinator"
	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/encryptor"
	"github.com/rshade/billingfocus/providers/aws"
	"github.com/rshade/billingfocus/providers/azure"
	"github.com/rshade/billingfocus/providers/gcp"
	"github.com/rshade/billingfocus/providers/openai"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/store/sqlstore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "billingfocusctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: billingfocusctl <trigger|cancel|retry|status|stats> [flags]")
	}

	cfg, err := config.LoadFromEnviron()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	db, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer db.Close()
	st := sqlstore.New(db)

	var enc *encryptor.Encryptor
	if cfg.EncryptionKey != "" {
		enc, err = encryptor.New([]byte(cfg.EncryptionKey))
		if err != nil {
			return fmt.Errorf("build encryptor: %w", err)
		}
	}

	reg := registry.New(nil)
	aws.Register(reg)
	azure.Register(reg)
	gcp.Register(reg)
	openai.Register(reg)

	coord := coordinator.New(reg, st, enc)
	coord.WorkerCount = cfg.WorkerCount
	coord.DefaultWindowDays = cfg.DefaultWindowDays

	switch args[0] {
	case "trigger":
		return cmdTrigger(ctx, coord, args[1:])
	case "cancel":
		return cmdCancel(coord, args[1:])
	case "retry":
		return cmdRetry(ctx, coord, args[1:])
	case "status":
		return cmdStatus(ctx, coord, args[1:])
	case "stats":
		return cmdStats(ctx, coord, args[1:])
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func cmdTrigger(ctx context.Context, coord *coordinator.Coordinator, args []string) error {
	fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
	providers := fs.String("providers", "", "comma-separated provider ids (required)")
	start := fs.String("start", "", "window start, RFC3339 (optional)")
	end := fs.String("end", "", "window end, RFC3339 (optional)")
	daysBack := fs.Int("days-back", 0, "trailing window in days (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *providers == "" {
		return errors.New("trigger: -providers is required")
	}

	window, err := parseWindowFlags(*start, *end, *daysBack)
	if err != nil {
		return fmt.Errorf("trigger: %w", err)
	}

	result, err := coord.Trigger(ctx, coordinator.TriggerRequest{
		ProviderIDs: splitCSV(*providers),
		RunType:     coordinatortypes.RunTypeManual,
		Window:      window,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func cmdCancel(coord *coordinator.Coordinator, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	runID := fs.String("run", "", "run id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("cancel: -run is required")
	}
	coord.Cancel(*runID)
	return nil
}

func cmdRetry(ctx context.Context, coord *coordinator.Coordinator, args []string) error {
	fs := flag.NewFlagSet("retry", flag.ContinueOnError)
	runID := fs.String("run", "", "run id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("retry: -run is required")
	}
	run, err := coord.Retry(ctx, *runID)
	if err != nil {
		return err
	}
	return printJSON(run)
}

func cmdStatus(ctx context.Context, coord *coordinator.Coordinator, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	providerID := fs.String("provider", "", "provider id (required)")
	limit := fs.Int("limit", 20, "max runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *providerID == "" {
		return errors.New("status: -provider is required")
	}
	runs, err := coord.Status(ctx, *providerID, *limit)
	if err != nil {
		return err
	}
	return printJSON(runs)
}

func cmdStats(ctx context.Context, coord *coordinator.Coordinator, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	providerID := fs.String("provider", "", "provider id (required)")
	days := fs.Int("days", 7, "trailing window in days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *providerID == "" {
		return errors.New("stats: -provider is required")
	}
	stats, err := coord.Stats(ctx, *providerID, *days)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func parseWindowFlags(start, end string, daysBack int) (coordinator.WindowRequest, error) {
	var req coordinator.WindowRequest
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return req, fmt.Errorf("invalid -start: %w", err)
		}
		req.Start = &t
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return req, fmt.Errorf("invalid -end: %w", err)
		}
		req.End = &t
	}
	if daysBack > 0 {
		req.DaysBack = &daysBack
	}
	return req, nil
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
