// recon-audit runs one reconciliation pass for a firm against the live
// spreadsheet and prints the result as JSON. Useful for checking what the
// API would serve without standing the server up.
//
// Usage:
//
//	go run ./cmd/recon-audit -firm "GOYAL TRADERS"
//	go run ./cmd/recon-audit -firm all -summary
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/models"
	"github.com/mmdatafocus/procurement_backend/reports"
	"github.com/mmdatafocus/procurement_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	firm := flag.String("firm", models.FirmWildcard, "firm scope to audit (\"all\" for every firm)")
	summary := flag.Bool("summary", false, "print the dashboard summary instead of the full result")
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline for the pass")
	flag.Parse()

	_ = godotenv.Load()

	logger := config.GetLogger()
	logger.SetLevel(logrus.WarnLevel)

	cfg, err := config.LoadSheetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	client := gsheets.NewClient(cfg, logger)
	loader := workflow.NewSheetLoader(client, cfg, logger)
	store := workflow.NewStore(loader, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := store.Reload(ctx, *firm)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reload:", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *summary {
		err = enc.Encode(reports.BuildDashboard(res))
	} else {
		err = enc.Encode(res)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}

	if len(res.SourceErrors) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d source tab(s) failed to load\n", len(res.SourceErrors))
		os.Exit(2)
	}
}
