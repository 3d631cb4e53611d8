package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

const defaultGvizBaseURL = "https://docs.google.com/spreadsheets/d"

// SheetConfig is the explicit configuration for the spreadsheet-backed data
// layer: the read endpoint (gviz), the write endpoint (Apps Script), and the
// tab names the service knows about. It is constructed once at startup and
// passed into the adapter/executor; nothing reads these from ambient state.
type SheetConfig struct {
	SpreadsheetID string
	GvizBaseURL   string
	ScriptURL     string

	LiftTab       string
	OrderTab      string
	ReferenceTab  string
	CorrectionTab string
	UserTab       string

	// ExtraTabs are additional tabs exposed through the raw sheet CRUD
	// endpoints (indents, bilty, tally and the like).
	ExtraTabs []string

	UploadFolderID string

	HTTPTimeout time.Duration
}

// LoadSheetConfig reads SheetConfig from the environment. Callers load .env
// (godotenv) before this.
func LoadSheetConfig() (SheetConfig, error) {
	cfg := SheetConfig{
		SpreadsheetID:  strings.TrimSpace(os.Getenv("SPREADSHEET_ID")),
		GvizBaseURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("GVIZ_BASE_URL")), "/"),
		ScriptURL:      strings.TrimSpace(os.Getenv("APPS_SCRIPT_URL")),
		LiftTab:        envOr("SHEET_LIFT_TAB", "LIFT-ACCOUNTS"),
		OrderTab:       envOr("SHEET_ORDER_TAB", "ORDER-PO"),
		ReferenceTab:   envOr("SHEET_REFERENCE_TAB", "MATERIAL-REFERENCE"),
		CorrectionTab:  envOr("SHEET_CORRECTION_TAB", "MISMATCH-CORRECTIONS"),
		UserTab:        envOr("SHEET_USER_TAB", "LOGIN"),
		UploadFolderID: strings.TrimSpace(os.Getenv("UPLOAD_FOLDER_ID")),
		HTTPTimeout:    30 * time.Second,
	}
	if cfg.GvizBaseURL == "" {
		cfg.GvizBaseURL = defaultGvizBaseURL
	}
	if raw := strings.TrimSpace(os.Getenv("SHEET_EXTRA_TABS")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cfg.ExtraTabs = append(cfg.ExtraTabs, part)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("SHEET_HTTP_TIMEOUT_SECONDS")); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		}
	}

	if cfg.SpreadsheetID == "" {
		return cfg, errors.New("SPREADSHEET_ID is required")
	}
	if cfg.ScriptURL == "" {
		return cfg, errors.New("APPS_SCRIPT_URL is required")
	}
	return cfg, nil
}

// KnownTab reports whether tab is one the service is configured to serve
// through the raw sheet endpoints. The correction ledger and the user
// directory are deliberately excluded.
func (c SheetConfig) KnownTab(tab string) bool {
	for _, t := range append([]string{c.LiftTab, c.OrderTab, c.ReferenceTab}, c.ExtraTabs...) {
		if strings.EqualFold(t, tab) {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
