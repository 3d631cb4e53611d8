package workflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/models"
)

func newCoordinator(t *testing.T, handler http.HandlerFunc) (*Coordinator, *Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.SheetConfig{
		ScriptURL:     srv.URL,
		CorrectionTab: "MISMATCH-CORRECTIONS",
		HTTPTimeout:   5 * time.Second,
	}
	store := NewStore(&staticLoader{input: mismatchInput()}, quietLogger())
	if _, err := store.Reload(context.Background(), "GOYAL TRADERS"); err != nil {
		t.Fatalf("seed reload: %v", err)
	}
	executor := gsheets.NewExecutor(cfg, quietLogger())
	return NewCoordinator(store, executor, cfg, quietLogger()), store
}

func okScript(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"success":true}`))
}

func TestSubmitValidation(t *testing.T) {
	co, _ := newCoordinator(t, okScript)

	cases := []struct {
		name string
		sub  CorrectionSubmission
	}{
		{"missing lift number", CorrectionSubmission{DecisionFlag: models.DecisionOther}},
		{"missing decision", CorrectionSubmission{LiftNumber: "LF-001"}},
		{"unknown decision", CorrectionSubmission{LiftNumber: "LF-001", DecisionFlag: "MAYBE"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := co.Submit(context.Background(), "GOYAL TRADERS", tc.sub)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestSubmitReasonRequiredFlag(t *testing.T) {
	t.Setenv("CORRECTION_REASON_REQUIRED", "true")
	co, _ := newCoordinator(t, okScript)

	_, err := co.Submit(context.Background(), "GOYAL TRADERS", CorrectionSubmission{
		LiftNumber:   "LF-001",
		DecisionFlag: models.DecisionCreditNote,
		ReasonText:   "   ",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation with reason flag on, got %v", err)
	}
}

func TestSubmitUnknownLift(t *testing.T) {
	co, _ := newCoordinator(t, okScript)
	_, err := co.Submit(context.Background(), "GOYAL TRADERS", CorrectionSubmission{
		LiftNumber:   "LF-999",
		DecisionFlag: models.DecisionOther,
	})
	if !errors.Is(err, ErrUnknownLift) {
		t.Fatalf("expected ErrUnknownLift, got %v", err)
	}
}

func TestSubmitNoSnapshot(t *testing.T) {
	co, _ := newCoordinator(t, okScript)
	_, err := co.Submit(context.Background(), "UNLOADED FIRM", CorrectionSubmission{
		LiftNumber:   "LF-001",
		DecisionFlag: models.DecisionOther,
	})
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSubmitWritesLedgerAndHidesOrder(t *testing.T) {
	var form url.Values
	co, store := newCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"success":true}`))
	})

	entry, err := co.Submit(context.Background(), "GOYAL TRADERS", CorrectionSubmission{
		LiftNumber:   "LF-001",
		DecisionFlag: models.DecisionCreditNote,
		ReasonText:   "vendor issued credit note",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.OrderNumber != "PO-1" || entry.FirmName != "GOYAL TRADERS" {
		t.Fatalf("entry not filled from the snapshot lift: %+v", entry)
	}
	if entry.Timestamp.IsZero() {
		t.Fatal("entry must be timestamped")
	}
	if form.Get("action") != "insertCorrection" || form.Get("sheetName") != "MISMATCH-CORRECTIONS" {
		t.Fatalf("unexpected ledger write: %v", form)
	}

	cur, _ := store.Current("GOYAL TRADERS")
	for _, m := range cur.Rate {
		if m.Lift.OrderNumber == "PO-1" {
			t.Fatal("corrected order still visible after optimistic hide")
		}
	}
}

func TestSubmitFailureLeavesSnapshotIntact(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"structured rejection", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"error":"sheet locked"}`))
		}},
		{"http failure", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota", http.StatusTooManyRequests)
		}},
		{"unclassifiable body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html></html>"))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			co, store := newCoordinator(t, tc.handler)
			_, err := co.Submit(context.Background(), "GOYAL TRADERS", CorrectionSubmission{
				LiftNumber:   "LF-001",
				DecisionFlag: models.DecisionOther,
			})
			var submitErr *SubmitError
			if !errors.As(err, &submitErr) {
				t.Fatalf("expected SubmitError, got %v", err)
			}

			// failed submits are discarded; the record stays visible
			cur, _ := store.Current("GOYAL TRADERS")
			if len(cur.Rate) != 2 {
				t.Fatalf("failed submit changed the snapshot: %d", len(cur.Rate))
			}
		})
	}
}

func TestSubmitSingleFlightPerLift(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	co, _ := newCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.Write([]byte(`{"success":true}`))
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := co.Submit(context.Background(), "GOYAL TRADERS", CorrectionSubmission{
			LiftNumber:   "LF-001",
			DecisionFlag: models.DecisionOther,
		}); err != nil {
			t.Errorf("first submit failed: %v", err)
		}
	}()

	<-started
	_, err := co.Submit(context.Background(), "GOYAL TRADERS", CorrectionSubmission{
		LiftNumber:   "LF-001",
		DecisionFlag: models.DecisionOther,
	})
	if !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(release)
	wg.Wait()
}
