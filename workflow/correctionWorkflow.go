package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrValidation: the submission was rejected before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownLift: the lift is not present in any current mismatch collection.
	ErrUnknownLift = errors.New("lift is not present in any mismatch collection")
	// ErrSubmitInFlight: a submission for the same lift has not settled yet.
	ErrSubmitInFlight = errors.New("a correction for this lift is already in progress")
	// ErrNoSnapshot: submit called before the first reload for the firm.
	ErrNoSnapshot = errors.New("no reconciliation snapshot loaded for this firm")
)

// SubmitError carries the best available message for a failed ledger write:
// the server's own message when it sent one, a transport-level one otherwise.
type SubmitError struct {
	Message string
}

func (e *SubmitError) Error() string {
	return "correction submit failed: " + e.Message
}

// CorrectionSubmission is the human-entered resolution for one mismatched
// record. ReasonText is soft-required by default; the
// CORRECTION_REASON_REQUIRED flag makes it hard-required.
type CorrectionSubmission struct {
	LiftNumber   string `json:"liftNumber" validate:"required"`
	DecisionFlag string `json:"decisionFlag" validate:"required,oneof=CREDIT_NOTE OTHER"`
	ReasonText   string `json:"reasonText"`
}

// Coordinator packages a submission into a correction ledger row, delegates
// to the mutation executor, and on success hides the corrected order from
// the current snapshot until the caller's reload lands. Submissions are
// single-flight per lift number; there is no cross-row coordination.
type Coordinator struct {
	store    *Store
	executor *gsheets.Executor
	cfg      config.SheetConfig
	logger   *logrus.Logger
	validate *validator.Validate

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewCoordinator(store *Store, executor *gsheets.Executor, cfg config.SheetConfig, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		executor: executor,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
		inflight: map[string]struct{}{},
	}
}

// Submit files one correction. The attempted correction is discarded on
// failure (no queueing, no retry); the record stays visible as mismatched.
func (co *Coordinator) Submit(ctx context.Context, firmName string, sub CorrectionSubmission) (models.CorrectionEntry, error) {
	if err := co.validate.Struct(sub); err != nil {
		return models.CorrectionEntry{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if config.CorrectionReasonRequired() && strings.TrimSpace(sub.ReasonText) == "" {
		return models.CorrectionEntry{}, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	snapshot, ok := co.store.Current(firmName)
	if !ok {
		return models.CorrectionEntry{}, ErrNoSnapshot
	}
	lift, ok := findLift(snapshot, sub.LiftNumber)
	if !ok {
		return models.CorrectionEntry{}, ErrUnknownLift
	}

	if !co.begin(lift.LiftNumber) {
		return models.CorrectionEntry{}, ErrSubmitInFlight
	}
	defer co.end(lift.LiftNumber)

	entry := models.CorrectionEntry{
		Timestamp:    time.Now().UTC(),
		LiftNumber:   lift.LiftNumber,
		OrderNumber:  lift.OrderNumber,
		DecisionFlag: sub.DecisionFlag,
		ReasonText:   sub.ReasonText,
		FirmName:     lift.FirmName,
	}

	ack, err := co.executor.InsertCorrection(ctx, co.cfg.CorrectionTab, entry.LedgerRow())
	if err != nil {
		config.LogError(co.logger, "workflow/correctionWorkflow.go", "Submit", "insert correction", entry, err)
		return models.CorrectionEntry{}, &SubmitError{Message: err.Error()}
	}
	if !ack.Success {
		msg := ack.Message
		if msg == "" {
			msg = "mutation endpoint rejected the correction"
		}
		config.LogError(co.logger, "workflow/correctionWorkflow.go", "Submit", "correction rejected", entry, errors.New(msg))
		return models.CorrectionEntry{}, &SubmitError{Message: msg}
	}

	co.store.HideOrder(firmName, lift.OrderNumber)
	return entry, nil
}

func (co *Coordinator) begin(liftNumber string) bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	if _, busy := co.inflight[liftNumber]; busy {
		return false
	}
	co.inflight[liftNumber] = struct{}{}
	return true
}

func (co *Coordinator) end(liftNumber string) {
	co.mu.Lock()
	defer co.mu.Unlock()
	delete(co.inflight, liftNumber)
}

func findLift(res *ReconResult, liftNumber string) (models.LiftRecord, bool) {
	target := strings.TrimSpace(liftNumber)
	for _, m := range res.Rate {
		if strings.TrimSpace(m.Lift.LiftNumber) == target {
			return m.Lift, true
		}
	}
	for _, m := range res.Quantity {
		if strings.TrimSpace(m.Lift.LiftNumber) == target {
			return m.Lift, true
		}
	}
	for _, m := range res.Material {
		if strings.TrimSpace(m.Lift.LiftNumber) == target {
			return m.Lift, true
		}
	}
	return models.LiftRecord{}, false
}
