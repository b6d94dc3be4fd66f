package http

import (
	"net/http"
	"strings"

	"society/internal/auth"
	"society/internal/core"
	"society/internal/export"
	"society/internal/log"
	"society/internal/report"
	"society/internal/settlement"
)

var exportFormats = []export.Format{export.FormatXLSX, export.FormatCSV, export.FormatPDF}

// ActionResponse is returned by approve and reimburse.
type ActionResponse struct {
	View    settlement.View   `json:"view"`
	Changed []core.Settlement `json:"changed"`
	Count   int               `json:"count"`
	Total   core.Money        `json:"total"`
}

// BatchResponse is returned when a batch is generated.
type BatchResponse struct {
	Batch core.SettlementBatch `json:"batch"`
	View  settlement.View      `json:"view"`
}

// BatchList is the batch history.
type BatchList struct {
	Batches []core.SettlementBatch `json:"batches"`
}

func (b BatchList) Empty() bool { return len(b.Batches) == 0 }

// ValidateResponse reports a selection that passed the checks.
type ValidateResponse struct {
	Valid bool       `json:"valid"`
	To    string     `json:"to"`
	Count int        `json:"count"`
	Total core.Money `json:"total"`
}

func actor(r *http.Request) string {
	if id, ok := auth.FromContext(r.Context()); ok {
		return id.Subject
	}
	return "anonymous"
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	v, err := ParseSettlementQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	screen, err := s.settlements.Screen(r.Context(), v)
	if err != nil {
		s.fail(w, r, "Settlement screen failed", err)
		return
	}
	NewJSONResponse().Result(screen).Write(w)
}

// handleSelect toggles ?id= in the posted view, or the whole tab when id is
// absent, and answers with the resulting screen.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	v, err := ParseViewBody(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	screen, err := s.settlements.Select(r.Context(), v, strings.TrimSpace(r.URL.Query().Get("id")))
	if err != nil {
		s.fail(w, r, "Settlement selection failed", err)
		return
	}
	NewJSONResponse().Result(screen).Write(w)
}

// handleValidate checks the selection against ?to=approved|reimbursed
// (approved by default) without changing anything.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	v, err := ParseViewBody(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	to := core.SettlementApproved
	if q := strings.TrimSpace(r.URL.Query().Get("to")); q != "" {
		to = core.SettlementStatus(strings.ToLower(q))
	}
	if to != core.SettlementApproved && to != core.SettlementReimbursed {
		BadRequestError("to must be approved or reimbursed").Write(w)
		return
	}
	selected, err := s.settlements.Validate(r.Context(), v, to)
	if err != nil {
		s.fail(w, r, "Settlement validation failed", err)
		return
	}
	NewJSONResponse().Body(ValidateResponse{
		Valid: true, To: string(to), Count: len(selected), Total: report.Sum(selected),
	}).Write(w)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, core.SettlementApproved)
}

func (s *Server) handleReimburse(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, core.SettlementReimbursed)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, to core.SettlementStatus) {
	v, err := ParseViewBody(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	apply := s.settlements.Approve
	if to == core.SettlementReimbursed {
		apply = s.settlements.Reimburse
	}
	res, err := apply(r.Context(), actor(r), v)
	if err != nil {
		s.fail(w, r, "Settlement transition failed", err)
		return
	}
	NewJSONResponse().Body(ActionResponse{
		View:    res.View,
		Changed: res.Changed,
		Count:   len(res.Changed),
		Total:   report.Sum(res.Changed),
	}).Write(w)
}

func (s *Server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	v, err := ParseViewBody(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	batch, res, err := s.settlements.GenerateBatch(r.Context(), actor(r), v)
	if err != nil {
		s.fail(w, r, "Batch generation failed", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/settlements/batches/"+batch.ID+"/export.xlsx").
		Body(BatchResponse{Batch: batch, View: res.View}).
		Write(w)
}

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.settlements.Batches(r.Context())
	if err != nil {
		s.fail(w, r, "Batch listing failed", err)
		return
	}
	if batches == nil {
		batches = []core.SettlementBatch{}
	}
	NewJSONResponse().Result(BatchList{Batches: batches}).Write(w)
}

// handleAdvanceBatch moves a batch forward to ?to=uploaded|processed.
func (s *Server) handleAdvanceBatch(w http.ResponseWriter, r *http.Request) {
	to := core.BatchStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("to"))))
	if to.Rank() < 0 {
		BadRequestError("to must be a batch status").Write(w)
		return
	}
	batch, err := s.settlements.AdvanceBatch(r.Context(), actor(r), r.PathValue("id"), to)
	if err != nil {
		s.fail(w, r, "Batch status change failed", err)
		return
	}
	NewJSONResponse().Body(batch).Write(w)
}

func (s *Server) handleExport(f export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		data, batch, err := s.settlements.Export(r.Context(), id, f)
		if err != nil {
			s.fail(w, r, "Batch export failed", err)
			return
		}
		log.FromContext(r.Context()).InfoContext(r.Context(), "Batch exported",
			log.FieldBatchID, batch.ID, log.FieldFormat, string(f), log.FieldActor, actor(r))

		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(batch, f)+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
