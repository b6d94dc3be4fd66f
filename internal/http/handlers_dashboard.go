package http

import (
	"net/http"

	"society/internal/auth"
	"society/internal/log"
)

func (s *Server) handleMyMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		ErrorResponse(http.StatusUnauthorized, "no identity").Write(w)
		return
	}
	year, err := ParseYearParam(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	insights, err := s.dashboard.MaintenanceInsights(r.Context(), id.FlatNo, year)
	if err != nil {
		s.fail(w, r, "Maintenance insights failed", err)
		return
	}
	NewJSONResponse().Result(insights).Write(w)
}

func (s *Server) handleMyExpenses(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		ErrorResponse(http.StatusUnauthorized, "no identity").Write(w)
		return
	}
	c, err := ParseMonthFilter(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	summary, err := s.dashboard.MemberExpenses(r.Context(), id.MemberID, c)
	if err != nil {
		s.fail(w, r, "Member expenses failed", err)
		return
	}
	NewJSONResponse().Result(summary).Write(w)
}

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := ParseMonthParams(q, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	period, err := ParsePeriod(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	overview, err := s.dashboard.AdminOverview(r.Context(), p.Year, p.Month, period)
	if err != nil {
		s.fail(w, r, "Admin overview failed", err)
		return
	}
	NewJSONResponse().Result(overview).Write(w)
}

func (s *Server) handleAdminRevenue(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	revenue, err := s.dashboard.Revenue(r.Context(), p.Year, p.Month)
	if err != nil {
		s.fail(w, r, "Revenue listing failed", err)
		return
	}
	NewJSONResponse().Result(revenue).Write(w)
}

// fail logs err and writes its mapped response. Refusals are already logged
// by the service, so only server errors are logged here.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	resp := ServiceError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), msg, err, r.Pattern, log.NewFields().WithComponent(log.ComponentHTTP))
	}
	resp.Write(w)
}
