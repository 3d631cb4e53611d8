package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/middlewares"
	"github.com/mmdatafocus/procurement_backend/workflow"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gvizEnvelope(rows ...[]string) string {
	var b strings.Builder
	b.WriteString(`google.visualization.Query.setResponse({"table":{"cols":[],"rows":[`)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"c":[`)
		for j, v := range row {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"v":%q}`, v)
		}
		b.WriteString(`]}`)
	}
	b.WriteString(`]}});`)
	return b.String()
}

func testSheetHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("sheet") {
		case "LOGIN":
			w.Write([]byte(gvizEnvelope(
				[]string{"ramesh", "secret123", "GOYAL TRADERS", "user"},
				[]string{"boss", "topsecret", "", "admin"},
			)))
		case "LIFT-ACCOUNTS":
			w.Write([]byte(gvizEnvelope(
				[]string{"", "LF-001", "GOYAL TRADERS", "PO-1", "ACME", "bauxite", "105", "10", "10"},
				[]string{"", "LF-002", "SHREE MINERALS", "PO-9", "ACME", "bauxite", "105", "10", "10"},
			)))
		case "ORDER-PO":
			w.Write([]byte(gvizEnvelope(
				[]string{"", "PO-1", "GOYAL TRADERS", "ACME", "bauxite", "100", "10"},
			)))
		case "MATERIAL-REFERENCE":
			w.Write([]byte(gvizEnvelope([]string{"bauxite", "54", "2.1", "0.9"})))
		case "MISMATCH-CORRECTIONS":
			w.Write([]byte(gvizEnvelope()))
		default:
			t.Errorf("unexpected tab %q", r.URL.Query().Get("sheet"))
			http.NotFound(w, r)
		}
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sheetSrv := httptest.NewServer(testSheetHandler(t))
	t.Cleanup(sheetSrv.Close)
	scriptSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(scriptSrv.Close)

	cfg := config.SheetConfig{
		SpreadsheetID: "test",
		GvizBaseURL:   sheetSrv.URL,
		ScriptURL:     scriptSrv.URL,
		LiftTab:       "LIFT-ACCOUNTS",
		OrderTab:      "ORDER-PO",
		ReferenceTab:  "MATERIAL-REFERENCE",
		CorrectionTab: "MISMATCH-CORRECTIONS",
		UserTab:       "LOGIN",
		HTTPTimeout:   5 * time.Second,
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := gsheets.NewClient(cfg, logger)
	executor := gsheets.NewExecutor(cfg, logger)
	store := workflow.NewStore(workflow.NewSheetLoader(client, cfg, logger), logger)
	api := &apiServer{
		cfg:         cfg,
		client:      client,
		executor:    executor,
		store:       store,
		coordinator: workflow.NewCoordinator(store, executor, cfg, logger),
		logger:      logger,
	}

	r := gin.New()
	r.Use(middlewares.AuthMiddleware())
	r.POST("/auth/login", api.loginHandler())
	r.GET("/api/mismatch", api.mismatchHandler())
	r.GET("/api/dashboard", api.dashboardHandler())
	r.GET("/api/sheets/:tab", api.sheetRowsHandler())
	return r
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/auth/login", "", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token    string `json:"token"`
		FirmName string `json:"firmName"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginAndMismatchFlow(t *testing.T) {
	t.Setenv("ALLOW_PLAINTEXT_PASSWORDS", "true")
	r := newTestRouter(t)

	token := loginAs(t, r, "ramesh", "secret123")

	w := doJSON(r, http.MethodGet, "/api/mismatch", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res workflow.ReconResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "GOYAL TRADERS", res.FirmName)
	require.Len(t, res.Rate, 1)
	assert.Equal(t, "LF-001", res.Rate[0].Lift.LiftNumber)
	assert.Equal(t, "5", res.Rate[0].RateDifference.String())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Setenv("ALLOW_PLAINTEXT_PASSWORDS", "true")
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/login", "", `{"username":"ramesh","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/login", "", `{"username":"nobody","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginPlaintextDisabledByDefault(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/auth/login", "", `{"username":"ramesh","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMismatchRequiresSession(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/api/mismatch", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminSeesAllFirms(t *testing.T) {
	t.Setenv("ALLOW_PLAINTEXT_PASSWORDS", "true")
	r := newTestRouter(t)

	token := loginAs(t, r, "boss", "topsecret")

	w := doJSON(r, http.MethodGet, "/api/dashboard", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var d struct {
		FirmName   string `json:"firmName"`
		TotalLifts int    `json:"totalLifts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "all", d.FirmName)
	assert.Equal(t, 2, d.TotalLifts)
}

func TestSheetRowsScopedAndGuarded(t *testing.T) {
	t.Setenv("ALLOW_PLAINTEXT_PASSWORDS", "true")
	r := newTestRouter(t)

	token := loginAs(t, r, "ramesh", "secret123")

	w := doJSON(r, http.MethodGet, "/api/sheets/LIFT-ACCOUNTS", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Rows []gsheets.Row `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "LF-001", resp.Rows[0].Cell(1).String())

	// the correction ledger and user directory are never served raw
	w = doJSON(r, http.MethodGet, "/api/sheets/LOGIN", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(r, http.MethodGet, "/api/sheets/MISMATCH-CORRECTIONS", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
