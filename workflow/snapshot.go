package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/models"
	"github.com/mmdatafocus/procurement_backend/utils"
	"github.com/sirupsen/logrus"
)

// ErrStaleReload marks a reload whose result was discarded because a newer
// reload for the same firm finished (or started) after it.
var ErrStaleReload = errors.New("reload superseded by a newer one")

// Loader produces the scoped record sets for one firm. The sheet-backed
// implementation never fails as a whole: a failed tab yields an empty set
// plus a SourceError entry.
type Loader interface {
	LoadAll(ctx context.Context, firmName string) ReconInput
}

// SheetLoader fetches the four source tabs concurrently and applies firm
// scoping before anything joins.
type SheetLoader struct {
	client *gsheets.Client
	cfg    config.SheetConfig
	logger *logrus.Logger
}

func NewSheetLoader(client *gsheets.Client, cfg config.SheetConfig, logger *logrus.Logger) *SheetLoader {
	return &SheetLoader{client: client, cfg: cfg, logger: logger}
}

func (l *SheetLoader) LoadAll(ctx context.Context, firmName string) ReconInput {
	input := ReconInput{FirmName: firmName}

	var mu sync.Mutex
	var wg sync.WaitGroup
	fetch := func(tab string, handle func(rows []gsheets.Row)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := l.client.FetchTab(ctx, tab)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				config.LogError(l.logger, "workflow/snapshot.go", "LoadAll", "fetching tab "+tab, nil, err)
				input.SourceErrors = append(input.SourceErrors, gsheets.SourceError{Tab: tab, Message: err.Error()})
				return
			}
			handle(rows)
		}()
	}

	fetch(l.cfg.LiftTab, func(rows []gsheets.Row) { input.Lifts = models.NormalizeLiftRows(rows) })
	fetch(l.cfg.OrderTab, func(rows []gsheets.Row) { input.Orders = models.NormalizeOrderRows(rows) })
	fetch(l.cfg.ReferenceTab, func(rows []gsheets.Row) { input.References = models.NormalizeReferenceRows(rows) })
	fetch(l.cfg.CorrectionTab, func(rows []gsheets.Row) { input.Corrections = models.NormalizeCorrectionRows(rows) })
	wg.Wait()

	input.Lifts = models.ScopeToFirm(input.Lifts, firmName, func(r *models.LiftRecord) string { return r.FirmName })
	input.Orders = models.ScopeToFirm(input.Orders, firmName, func(r *models.PurchaseOrder) string { return r.FirmName })
	input.Corrections = models.ScopeToFirm(input.Corrections, firmName, func(r *models.CorrectionEntry) string { return r.FirmName })
	// Material references are shared across firms; no firm column to scope.

	return input
}

// Store holds the latest reconciliation snapshot per firm scope. Each
// reload takes a generation token; a finished load is applied only while
// its token is still the newest for that firm, so a stale response can
// never overwrite a fresher snapshot.
type Store struct {
	loader Loader
	logger *logrus.Logger

	gen atomic.Uint64

	mu        sync.RWMutex
	snapshots map[string]*ReconResult
	latest    map[string]uint64
}

func NewStore(loader Loader, logger *logrus.Logger) *Store {
	return &Store{
		loader:    loader,
		logger:    logger,
		snapshots: map[string]*ReconResult{},
		latest:    map[string]uint64{},
	}
}

func scopeKey(firmName string) string {
	return utils.NormalizeKey(firmName)
}

// Reload runs one full fetch+reconcile pass for the firm and swaps the
// snapshot in wholesale. Readers keep seeing the previous snapshot until
// the swap. Returns ErrStaleReload when a newer reload superseded this one.
func (s *Store) Reload(ctx context.Context, firmName string) (*ReconResult, error) {
	key := scopeKey(firmName)
	token := s.gen.Add(1)

	s.mu.Lock()
	s.latest[key] = token
	s.mu.Unlock()

	input := s.loader.LoadAll(ctx, firmName)
	result := ProcessReconciliation(input)
	result.Generation = token
	result.LoadedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[key] != token {
		return nil, ErrStaleReload
	}
	s.snapshots[key] = result
	return result, nil
}

// Current returns the latest snapshot for the firm, if one has loaded.
func (s *Store) Current(firmName string) (*ReconResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.snapshots[scopeKey(firmName)]
	return res, ok
}

// HideOrder optimistically drops every mismatch entry for the order number
// from the firm's current snapshot, so a just-corrected row does not flash
// back while the post-submit reload is in flight. The snapshot is replaced
// with a filtered copy, never edited in place.
func (s *Store) HideOrder(firmName, orderNumber string) {
	key := scopeKey(firmName)
	target := strings.TrimSpace(orderNumber)
	if target == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.snapshots[key]
	if !ok {
		return
	}

	next := &ReconResult{
		FirmName:     old.FirmName,
		Rate:         make([]RateMismatch, 0, len(old.Rate)),
		Quantity:     make([]QuantityMismatch, 0, len(old.Quantity)),
		Material:     make([]MaterialMismatch, 0, len(old.Material)),
		Stats:        old.Stats,
		SourceErrors: old.SourceErrors,
		Generation:   old.Generation,
		LoadedAt:     old.LoadedAt,
	}
	for _, m := range old.Rate {
		if strings.TrimSpace(m.Lift.OrderNumber) != target {
			next.Rate = append(next.Rate, m)
		}
	}
	for _, m := range old.Quantity {
		if strings.TrimSpace(m.Lift.OrderNumber) != target {
			next.Quantity = append(next.Quantity, m)
		}
	}
	for _, m := range old.Material {
		if strings.TrimSpace(m.Lift.OrderNumber) != target {
			next.Material = append(next.Material, m)
		}
	}
	next.Facets = collectFacets(next)
	s.snapshots[key] = next
}
