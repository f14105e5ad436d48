package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/wins-exporter/internal/export"
	"github.com/jonathan/wins-exporter/internal/merge"
	"github.com/jonathan/wins-exporter/internal/pipeline"
	"github.com/jonathan/wins-exporter/internal/server/middleware"
	"github.com/jonathan/wins-exporter/internal/types"
)

const maxRequestBody = 1 << 20

// decodeRowsRequest reads the optional JSON body. An empty body selects every default.
func decodeRowsRequest(r *http.Request) (*types.RowsRequest, error) {
	req := &types.RowsRequest{}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// runOptions layers request fields over the server's pipeline defaults.
func (s *Server) runOptions(r *http.Request, req *types.RowsRequest) (pipeline.Options, error) {
	opts := s.pipelineOpts
	cutoff, err := req.CutoffTime()
	if err != nil {
		return opts, &ErrValidation{Field: "cutoff", Message: err.Error()}
	}
	if !cutoff.IsZero() {
		opts.Cutoff = cutoff.UTC()
	}
	if req.Concurrency != 0 {
		opts.Concurrency = req.Concurrency
	}
	if req.RetentionDays != 0 {
		opts.RetentionDays = req.RetentionDays
	}

	logger := s.logger.With(zap.String("path", r.URL.Path))
	if subject, err := middleware.GetSubject(r); err == nil {
		logger = logger.With(zap.String("subject", subject))
	}
	opts.Logger = logger
	return opts, nil
}

func (s *Server) sessionTokenFor(r *http.Request) string {
	if token := r.Header.Get(SessionTokenHeader); token != "" {
		return token
	}
	return s.sessionToken
}

// runIDRecorder keeps the run ID reported by the first progress event.
type runIDRecorder struct {
	mu    sync.Mutex
	runID string
	next  pipeline.ProgressCallback
}

func (rec *runIDRecorder) observe(event pipeline.ProgressEvent) {
	rec.mu.Lock()
	if rec.runID == "" {
		rec.runID = event.RunID
	}
	rec.mu.Unlock()
	if rec.next != nil {
		rec.next(event)
	}
}

func (rec *runIDRecorder) id() string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.runID
}

// fetch runs the pipeline for one request and returns its rows and run ID.
func (s *Server) fetch(ctx context.Context, r *http.Request, req *types.RowsRequest, onProgress pipeline.ProgressCallback) ([]types.OutputRow, string, pipeline.Options, error) {
	opts, err := s.runOptions(r, req)
	if err != nil {
		return nil, "", opts, err
	}
	rec := &runIDRecorder{next: onProgress}
	opts.OnProgress = rec.observe

	rows, err := pipeline.FetchRows(ctx, s.sessionTokenFor(r), opts)
	if err != nil {
		return nil, rec.id(), opts, err
	}
	return rows, rec.id(), opts, nil
}

// handleRows returns the rows for the requested window as JSON.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRowsRequest(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	rows, runID, _, err := s.fetch(r.Context(), r, req, nil)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.RowsResponse{RunID: runID, Rows: rows, Count: len(rows)})
}

// handleExport renders the rows as a CSV or JSON attachment and records a snapshot when
// storage is configured.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRowsRequest(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	format := req.Format
	if format == "" {
		format = export.FormatCSV
	}
	writer, err := export.ForFormat(format)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	rows, runID, opts, err := s.fetch(r.Context(), r, req, nil)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	var body bytes.Buffer
	if err := writer.Write(&body, rows); err != nil {
		s.failure(w, r, err)
		return
	}

	if s.store != nil {
		if err := s.saveSnapshot(r.Context(), runID, opts, writer.Format(), rows); err != nil {
			s.failure(w, r, err)
			return
		}
	}

	filename := fmt.Sprintf("wins-%s.%s", effectiveCutoff(opts).Format("2006-01-02"), writer.Format())
	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Run-ID", runID)
	w.Header().Set("X-Row-Count", fmt.Sprint(len(rows)))
	w.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(w); err != nil {
		s.logger.Warn("server: writing export body", zap.Error(err))
	}
}

func (s *Server) saveSnapshot(ctx context.Context, runID string, opts pipeline.Options, format string, rows []types.OutputRow) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		id = uuid.New()
	}
	retention := opts.RetentionDays
	if retention == 0 {
		retention = merge.DefaultRetentionDays
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	snapshot := &types.Snapshot{
		RunID:         id,
		Cutoff:        effectiveCutoff(opts),
		RetentionDays: retention,
		Destination:   "http",
		Format:        format,
		CreatedAt:     now().UTC(),
		Rows:          rows,
	}
	if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func effectiveCutoff(opts pipeline.Options) time.Time {
	if opts.Cutoff.IsZero() {
		return pipeline.DefaultCutoff
	}
	return opts.Cutoff
}

// handleStream runs the pipeline and reports progress as server-sent events, finishing
// with a rows event and a complete event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRowsRequest(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	rows, runID, _, err := s.fetch(r.Context(), r, req, func(event pipeline.ProgressEvent) {
		if werr := sse.WriteEvent("progress", event); werr != nil {
			s.logger.Debug("server: dropping progress event", zap.Error(werr))
		}
	})
	if err != nil {
		sse.WriteError(ErrorCode(err), err.Error())
		sse.WriteComplete(runID, "failed")
		return
	}

	if err := sse.WriteEvent("rows", types.RowsResponse{RunID: runID, Rows: rows, Count: len(rows)}); err != nil {
		s.logger.Warn("server: writing rows event", zap.Error(err))
		return
	}
	sse.WriteComplete(runID, "completed")
}
