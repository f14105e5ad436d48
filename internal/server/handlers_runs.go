package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/wins-exporter/internal/db"
	"github.com/jonathan/wins-exporter/internal/export"
	"github.com/jonathan/wins-exporter/internal/types"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// RunsResponse lists stored export runs, newest first.
type RunsResponse struct {
	Runs  []db.Run `json:"runs"`
	Count int      `json:"count"`
}

// parseRunID extracts and validates the {id} path value.
func parseRunID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

// handleListRuns lists recent snapshots. ?limit= caps the result between 1 and 200.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.failure(w, r, &ErrStorageDisabled{})
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			s.failure(w, r, &ErrValidation{Field: "limit", Message: "must be an integer between 1 and 200"})
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, RunsResponse{Runs: runs, Count: len(runs)})
}

// lookupRun resolves the {id} path value to a stored run.
func (s *Server) lookupRun(r *http.Request) (*db.Run, error) {
	if s.store == nil {
		return nil, &ErrStorageDisabled{}
	}
	id, err := parseRunID(r)
	if err != nil {
		return nil, err
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, &ErrNotFound{Resource: "run", ID: id.String()}
	}
	return run, nil
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleRunRows returns a stored snapshot's rows. ?format=csv|json renders them as an
// attachment; without it they come back in the rows response shape.
func (s *Server) handleRunRows(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	rows, err := s.store.GetRows(r.Context(), run.ID)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		s.jsonResponse(w, http.StatusOK, types.RowsResponse{RunID: run.ID.String(), Rows: rows, Count: len(rows)})
		return
	}

	writer, err := export.ForFormat(format)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="wins-`+run.ID.String()+"."+writer.Format()+`"`)
	if err := writer.Write(w, rows); err != nil {
		s.failure(w, r, err)
	}
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if err := s.store.DeleteRun(r.Context(), run.ID); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
