package gsheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/sirupsen/logrus"
)

// Client reads tabs from the spreadsheet's public gviz query endpoint.
type Client struct {
	cfg    config.SheetConfig
	http   *http.Client
	logger *logrus.Logger
}

func NewClient(cfg config.SheetConfig, logger *logrus.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger: logger,
	}
}

// FetchTab returns the named tab as normalized rows. Transport failures and
// non-2xx statuses wrap ErrSourceUnavailable; envelope/payload problems wrap
// ErrMalformedResponse. Zero rows is a valid empty result.
func (c *Client) FetchTab(ctx context.Context, tab string) ([]Row, error) {
	params := url.Values{}
	params.Set("tqx", "out:json")
	params.Set("sheet", tab)
	endpoint := fmt.Sprintf("%s/%s/gviz/tq?%s", c.cfg.GvizBaseURL, c.cfg.SpreadsheetID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: gviz status %d: %s", ErrSourceUnavailable, resp.StatusCode, trimBody(body))
	}

	rows, err := ParseGvizBody(body)
	if err != nil {
		config.LogError(c.logger, "gsheets/client.go", "FetchTab", "parsing tab "+tab, nil, err)
		return nil, err
	}
	return rows, nil
}

func trimBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
