package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"society/internal/amqp"
	"society/internal/core"
	"society/internal/export"
	"society/internal/ledger"
	"society/internal/metrics"
	"society/internal/report"
	"society/internal/settlement"
)

// EventPublisher is the outbound side of the settlement queue. *amqp.Client
// implements it.
type EventPublisher interface {
	PublishTransition(ctx context.Context, t amqp.TransitionEvent) error
	PublishBatchGenerated(ctx context.Context, b core.SettlementBatch) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// SettlementOptions tunes a SettlementService. Zero values fall back to
// defaults.
type SettlementOptions struct {
	Reserve     core.Money
	PaymentMode string
	Now         func() time.Time
}

// SettlementService applies workflow transitions to the settlement store and
// announces them on the event queue.
type SettlementService struct {
	store     ledger.Store
	publisher EventPublisher
	metrics   *metrics.Metrics
	reserve   core.Money
	export    export.Options
	now       func() time.Time
}

// NewSettlementService wires the service. publisher and m may be nil.
func NewSettlementService(store ledger.Store, publisher EventPublisher, m *metrics.Metrics, opts SettlementOptions) *SettlementService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Reserve.Paise == 0 {
		opts.Reserve = settlement.DefaultReserve
	}
	return &SettlementService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		reserve:   opts.Reserve,
		export:    export.Options{PaymentMode: opts.PaymentMode},
		now:       opts.Now,
	}
}

// Row is a settlement on screen with its references resolved.
type Row struct {
	core.Settlement
	Resolved []settlement.Resolved `json:"resolved"`
}

// Screen is everything the settlement page shows for a view.
type Screen struct {
	View     settlement.View     `json:"view"`
	Overview settlement.Overview `json:"overview"`
	Rows     []Row               `json:"rows"`
}

func (s Screen) Empty() bool { return len(s.Rows) == 0 }

// Screen builds the overview for v.Month and the rows of the current tab.
func (s *SettlementService) Screen(ctx context.Context, v settlement.View) (Screen, error) {
	if v.Tab == "" {
		v.Tab = core.SettlementPending
	}
	if !v.Tab.Valid() {
		return Screen{}, fmt.Errorf("%w: tab %q", core.ErrInvalidStatus, v.Tab)
	}
	if v.Selected == nil {
		v.Selected = []string{}
	}

	all, err := s.store.Settlements(ctx)
	if err != nil {
		return Screen{}, fmt.Errorf("load settlements: %w", err)
	}
	stats, err := s.store.MonthlyStats(ctx)
	if err != nil {
		return Screen{}, fmt.Errorf("load monthly stats: %w", err)
	}
	overview, err := settlement.OverviewFor(all, v.Month, stats, s.reserve)
	if err != nil {
		return Screen{}, err
	}

	lookup, err := s.lookup(ctx)
	if err != nil {
		return Screen{}, err
	}
	tab := v.Rows(all)
	rows := make([]Row, 0, len(tab))
	for _, st := range tab {
		rows = append(rows, Row{Settlement: st, Resolved: lookup.ResolveAll(st)})
	}
	return Screen{View: v, Overview: overview, Rows: rows}, nil
}

func (s *SettlementService) lookup(ctx context.Context) (*settlement.Lookup, error) {
	expenses, err := s.store.MemberExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load member expenses: %w", err)
	}
	bills, err := s.store.VendorBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vendor bills: %w", err)
	}
	return settlement.NewLookup(expenses, bills), nil
}

// Select toggles id in the selection of v, or every row of the current tab
// when id is empty, and returns the screen for the new view. An id that is
// not shown in the tab is ledger.ErrNotFound.
func (s *SettlementService) Select(ctx context.Context, v settlement.View, id string) (Screen, error) {
	if v.Tab == "" {
		v.Tab = core.SettlementPending
	}
	all, err := s.store.Settlements(ctx)
	if err != nil {
		return Screen{}, fmt.Errorf("load settlements: %w", err)
	}
	if id == "" {
		return s.Screen(ctx, v.ToggleSelectAll(all))
	}
	if !slices.ContainsFunc(v.Rows(all), func(st core.Settlement) bool { return st.ID == id }) {
		return Screen{}, fmt.Errorf("settlement %s in %s: %w", id, v.Tab, ledger.ErrNotFound)
	}
	return s.Screen(ctx, v.ToggleSelect(id))
}

// Validate runs the checks of moving the selection of v to state to
// without changing anything.
func (s *SettlementService) Validate(ctx context.Context, v settlement.View, to core.SettlementStatus) ([]core.Settlement, error) {
	all, err := s.store.Settlements(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settlements: %w", err)
	}
	selected, err := settlement.Check(all, v, to)
	if err != nil {
		s.refused(ctx, string(to), err)
	}
	return selected, err
}

// Approve moves the selection from pending to approved.
func (s *SettlementService) Approve(ctx context.Context, actor string, v settlement.View) (settlement.Result, error) {
	return s.transition(ctx, actor, v, core.SettlementApproved)
}

// Reimburse moves the selection from approved to reimbursed.
func (s *SettlementService) Reimburse(ctx context.Context, actor string, v settlement.View) (settlement.Result, error) {
	return s.transition(ctx, actor, v, core.SettlementReimbursed)
}

func (s *SettlementService) transition(ctx context.Context, actor string, v settlement.View, to core.SettlementStatus) (settlement.Result, error) {
	var res settlement.Result
	err := s.store.UpdateSettlements(ctx, func(all []core.Settlement) ([]core.Settlement, error) {
		var err error
		res, err = settlement.Transition(all, v, to, s.now())
		if err != nil {
			return nil, err
		}
		return res.Settlements, nil
	})
	if err != nil {
		s.refused(ctx, string(to), err)
		return settlement.Result{View: v}, err
	}

	total := report.Sum(res.Changed)
	s.metrics.ObserveTransition(string(to), len(res.Changed), total.Paise)
	slog.InfoContext(ctx, "Settlements transitioned",
		"component", "settlement", "actor", actor, "to", to, "count", len(res.Changed), "total_paise", total.Paise)

	from := core.SettlementPending
	if to == core.SettlementReimbursed {
		from = core.SettlementApproved
	}
	ids := make([]string, 0, len(res.Changed))
	for _, c := range res.Changed {
		ids = append(ids, c.ID)
	}
	s.publish(ctx, string(amqp.KindTransitioned), func(p EventPublisher) error {
		return p.PublishTransition(ctx, amqp.TransitionEvent{SettlementIDs: ids, From: from, To: to, Total: total, Actor: actor})
	})
	return res, nil
}

// GenerateBatch bundles the selected approved settlements into a payment
// batch, stores it and hands it to the export worker.
func (s *SettlementService) GenerateBatch(ctx context.Context, actor string, v settlement.View) (core.SettlementBatch, settlement.Result, error) {
	var (
		batch core.SettlementBatch
		res   settlement.Result
	)
	err := s.store.CommitBatch(ctx, func(all []core.Settlement) ([]core.Settlement, core.SettlementBatch, error) {
		var err error
		batch, res, err = settlement.BuildBatch(all, v, actor, s.now())
		if err != nil {
			return nil, core.SettlementBatch{}, err
		}
		return res.Settlements, batch, nil
	})
	if err != nil {
		s.refused(ctx, "batch", err)
		s.metrics.IncBatch(metrics.ResultError)
		return core.SettlementBatch{}, settlement.Result{View: v}, err
	}

	s.metrics.IncBatch(metrics.ResultSuccess)
	slog.InfoContext(ctx, "Payment batch generated",
		"component", "settlement", "actor", actor, "batch_id", batch.ID, "month", batch.Month,
		"count", len(batch.Settlements), "total_paise", batch.TotalAmount.Paise)

	s.publish(ctx, string(amqp.KindBatchGenerated), func(p EventPublisher) error {
		return p.PublishBatchGenerated(ctx, batch)
	})
	return batch, res, nil
}

// AdvanceBatch moves batch id forward to status to, for instance once the
// bank file was uploaded.
func (s *SettlementService) AdvanceBatch(ctx context.Context, actor, id string, to core.BatchStatus) (core.SettlementBatch, error) {
	b, err := s.store.Batch(ctx, id)
	if err != nil {
		return core.SettlementBatch{}, err
	}
	from := b.Status
	b, err = settlement.AdvanceBatch(b, to)
	if err != nil {
		s.refused(ctx, "batch_advance", err)
		return core.SettlementBatch{}, err
	}
	if err := s.store.SaveBatch(ctx, b); err != nil {
		return core.SettlementBatch{}, fmt.Errorf("save batch: %w", err)
	}
	slog.InfoContext(ctx, "Payment batch advanced",
		"component", "settlement", "actor", actor, "batch_id", b.ID, "from", from, "to", b.Status)
	return b, nil
}

// Batches lists generated batches, newest first.
func (s *SettlementService) Batches(ctx context.Context) ([]core.SettlementBatch, error) {
	return s.store.Batches(ctx)
}

// Export renders batch id in format f.
func (s *SettlementService) Export(ctx context.Context, id string, f export.Format) ([]byte, core.SettlementBatch, error) {
	b, err := s.store.Batch(ctx, id)
	if err != nil {
		return nil, core.SettlementBatch{}, err
	}
	start := time.Now()
	data, err := export.Render(f, b, s.export)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	s.metrics.ObserveExport(string(f), result, time.Since(start))
	if err != nil {
		return nil, b, fmt.Errorf("render %s: %w", f, err)
	}
	return data, b, nil
}

// publish sends an event when a publisher is configured. Failures are
// logged only; the state change is already stored.
func (s *SettlementService) publish(ctx context.Context, kind string, send func(EventPublisher) error) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event", "kind", kind)
		return
	}
	if err := send(s.publisher); err != nil {
		s.metrics.IncEvent(kind, metrics.ResultError)
		slog.ErrorContext(ctx, "Failed to publish settlement event", "kind", kind, "error", err)
		return
	}
	s.metrics.IncEvent(kind, metrics.ResultSuccess)
}

func (s *SettlementService) refused(ctx context.Context, action string, err error) {
	var verr *settlement.ValidationError
	reason := "error"
	switch {
	case errors.As(err, &verr):
		reason = "missing_bank_details"
		slog.WarnContext(ctx, "Settlement action refused", "component", "settlement",
			"action", action, "invalid", len(verr.Invalid))
	case errors.Is(err, settlement.ErrEmptySelection):
		reason = "empty_selection"
	case errors.Is(err, settlement.ErrInvalidTransition):
		reason = "invalid_transition"
	}
	s.metrics.IncRefusal(action, reason)
	if verr == nil {
		slog.WarnContext(ctx, "Settlement action refused", "component", "settlement", "action", action, "error", err)
	}
}
