package api

import (
	"net/http"
	"strconv"

	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	"spreaddiag/internal/analysis/yearly"
	"spreaddiag/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"persistence": s.store != nil,
	})
}

func (s *Server) handleListDiagnostics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Describe())
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	var req YearlyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Persist && s.store == nil {
		s.writeError(w, errors.InvalidParameter("persistence is not configured"))
		return
	}

	data, err := req.series()
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := yearly.Options{
		ADF:         s.config.Suite.ADF,
		HACMaxLags:  s.config.Suite.HACMaxLags,
		AutocorrLag: s.config.Suite.AutocorrLag,
		Workers:     s.config.Workers,
	}
	if req.HACMaxLags != nil {
		opts.HACMaxLags = *req.HACMaxLags
	}
	if req.AutocorrLag != nil {
		opts.AutocorrLag = *req.AutocorrLag
	}

	runner := yearly.NewRunner(opts, s.logger)
	var resp YearlyResponse
	if len(req.Years) == 0 {
		resp.Table, err = runner.RunAllYears(r.Context(), data)
	} else {
		resp.Table, err = runner.Run(r.Context(), data, req.Years)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Persist {
		run, err := s.store.SaveYearly(r.Context(), req.Source, resp.Table)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.RunID = &run.ID
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuite(w http.ResponseWriter, r *http.Request) {
	var req SuiteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Persist && s.store == nil {
		s.writeError(w, errors.InvalidParameter("persistence is not configured"))
		return
	}

	frame, err := req.frame()
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.config.Suite
	if req.AutocorrLag != nil {
		opts.AutocorrLag = *req.AutocorrLag
	}
	if req.HACMaxLags != nil {
		opts.HACMaxLags = *req.HACMaxLags
	}
	if req.VarianceWindow != nil {
		opts.VarianceWindow = *req.VarianceWindow
	}
	if req.SplitRatio != nil {
		opts.SplitRatio = *req.SplitRatio
	}
	input := adapterDiag.DiagnosticInput{Frame: frame, Options: opts}

	var outcomes []adapterDiag.Outcome
	if req.Test != "" {
		outcome, ok := s.engine.RunSingle(r.Context(), req.Test, input)
		if !ok {
			s.writeError(w, errors.InvalidParameter("unknown diagnostic %q", req.Test))
			return
		}
		// A single test reports its failure as the response status.
		if outcome.Err != nil {
			s.writeError(w, outcome.Err)
			return
		}
		outcomes = []adapterDiag.Outcome{outcome}
	} else {
		outcomes = s.engine.RunAll(r.Context(), input)
	}

	resp := SuiteResponse{Results: make([]SuiteEntry, len(outcomes))}
	for i, o := range outcomes {
		resp.Results[i] = newSuiteEntry(o)
	}

	if req.Persist {
		run, err := s.store.SaveSuite(r.Context(), req.Source, opts, outcomes)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.RunID = &run.ID
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, errors.InvalidParameter("limit must be a non-negative integer, got %q", raw))
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetYearly(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	table, err := s.store.GetYearly(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, YearlyResponse{RunID: &id, Table: table})
}

func (s *Server) handleGetSuite(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	records, err := s.store.GetSuite(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := SuiteResponse{RunID: &id, Results: make([]SuiteEntry, len(records))}
	for i, rec := range records {
		resp.Results[i] = SuiteEntry{Name: rec.Name, Error: rec.Error}
		if rec.Fields != nil {
			resp.Results[i].Fields = nullableFields(rec.Fields)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, errors.NotFound("run storage"))
		return false
	}
	return true
}

func (s *Server) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeError(w, errors.InvalidParameter("invalid run id %q", raw))
		return uuid.Nil, false
	}
	return id, true
}
