package gsheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/sirupsen/logrus"
)

// Action discriminators understood by the Apps Script endpoint.
const (
	actionUpdateCells      = "update"
	actionInsertRow        = "insert"
	actionUploadFile       = "uploadFile"
	actionInsertCorrection = "insertCorrection"
)

// AckKind tags how a mutation response was interpreted. The endpoint does
// not always return well-formed JSON, so the heuristic fallback is an
// explicit, separately testable strategy rather than an inlined hack.
type AckKind int

const (
	// AckStructured: valid JSON with an explicit success indicator.
	AckStructured AckKind = iota
	// AckHeuristic: unparseable body classified by keyword vocabulary.
	AckHeuristic
	// AckParseFailure: neither structured nor classifiable.
	AckParseFailure
)

var (
	ackSuccessWords = []string{"success", "ok", "done"}
	ackFailureWords = []string{"error", "fail", "exception"}
)

// Ack is the interpreted outcome of one mutation request.
type Ack struct {
	Kind    AckKind
	Success bool
	Message string
	FileURL string
}

// Executor submits cell/row mutations to the Apps Script endpoint via
// form-encoded POSTs.
type Executor struct {
	url    string
	http   *http.Client
	logger *logrus.Logger
}

func NewExecutor(cfg config.SheetConfig, logger *logrus.Logger) *Executor {
	return &Executor{
		url:    cfg.ScriptURL,
		http:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger: logger,
	}
}

// UpdateCells sets column->value pairs on one row of a tab.
func (e *Executor) UpdateCells(ctx context.Context, sheet string, rowIndex int, updates map[string]string) (Ack, error) {
	payload, err := json.Marshal(updates)
	if err != nil {
		return Ack{}, err
	}
	form := url.Values{}
	form.Set("action", actionUpdateCells)
	form.Set("sheetName", sheet)
	form.Set("rowIndex", strconv.Itoa(rowIndex))
	form.Set("cellUpdates", string(payload))
	return e.post(ctx, form)
}

// InsertRow appends a full row to a tab.
func (e *Executor) InsertRow(ctx context.Context, sheet string, row []string) (Ack, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return Ack{}, err
	}
	form := url.Values{}
	form.Set("action", actionInsertRow)
	form.Set("sheetName", sheet)
	form.Set("rowData", string(payload))
	return e.post(ctx, form)
}

// InsertCorrection appends one entry to the correction ledger tab. Kept as
// its own action so the ledger write is distinguishable from ordinary row
// inserts on the script side.
func (e *Executor) InsertCorrection(ctx context.Context, sheet string, row []string) (Ack, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return Ack{}, err
	}
	form := url.Values{}
	form.Set("action", actionInsertCorrection)
	form.Set("sheetName", sheet)
	form.Set("rowData", string(payload))
	return e.post(ctx, form)
}

// UploadFile sends a base64 file payload for storage in the remote folder;
// a successful ack carries the resulting file URL.
func (e *Executor) UploadFile(ctx context.Context, fileName, mimeType, base64Data, folderID string) (Ack, error) {
	form := url.Values{}
	form.Set("action", actionUploadFile)
	form.Set("fileName", fileName)
	form.Set("mimeType", mimeType)
	form.Set("base64Data", base64Data)
	form.Set("folderId", folderID)
	return e.post(ctx, form)
}

func (e *Executor) post(ctx context.Context, form url.Values) (Ack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, strings.NewReader(form.Encode()))
	if err != nil {
		return Ack{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.http.Do(req)
	if err != nil {
		return Ack{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Ack{}, fmt.Errorf("mutation endpoint status %d: %s", resp.StatusCode, trimBody(body))
	}
	return ParseAck(body), nil
}

// ParseAck interprets a mutation response body. Structured JSON with an
// explicit success flag wins; otherwise the keyword heuristic applies, with
// failure words taking precedence over success words.
func ParseAck(body []byte) Ack {
	var parsed struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
		FileURL string `json:"fileUrl"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Success != nil {
		msg := parsed.Message
		if msg == "" {
			msg = parsed.Error
		}
		return Ack{Kind: AckStructured, Success: *parsed.Success, Message: msg, FileURL: parsed.FileURL}
	}

	lower := strings.ToLower(string(body))
	for _, w := range ackFailureWords {
		if strings.Contains(lower, w) {
			return Ack{Kind: AckHeuristic, Success: false, Message: trimBody(body)}
		}
	}
	for _, w := range ackSuccessWords {
		if strings.Contains(lower, w) {
			return Ack{Kind: AckHeuristic, Success: true, Message: trimBody(body)}
		}
	}
	return Ack{Kind: AckParseFailure, Success: false, Message: trimBody(body)}
}
