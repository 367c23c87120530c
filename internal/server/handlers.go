package server

import (
	"encoding/json"
	"net/http"

	"atsscorer/internal/auth"
	"atsscorer/internal/errors"
	"atsscorer/internal/schema"
	"atsscorer/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "atsscorer.api"

// storedScoreRequest is the optional body of POST /v1/resumes/{id}/score
type storedScoreRequest struct {
	JobDescription string   `json:"jobDescription,omitempty"`
	TargetKeywords []string `json:"targetKeywords,omitempty"`
	UseAI          bool     `json:"useAI,omitempty"`
}

type resumeListResponse struct {
	Resumes []types.ResumeSummary `json:"resumes"`
}

func (s *Server) startSpan(r *http.Request, name string) (*http.Request, trace.Span) {
	ctx, span := s.deps.Obs.Tracer(tracerName).Start(r.Context(), name)
	return r.WithContext(ctx), span
}

func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.writeError(w, err)
}

func owner(r *http.Request) string {
	if u, ok := auth.CurrentUser(r.Context()); ok {
		return u.ID
	}
	return auth.LocalUser.ID
}

// scoreHandler handles POST /v1/score
func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.score")
	defer span.End()

	body, err := readBody(r, false)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	if err := schema.ValidateScoreRequest(body); err != nil {
		s.fail(w, span, err)
		return
	}

	var req types.ScoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.fail(w, span, errors.NewInputShapeError("request body does not match the expected shape", err))
		return
	}
	req.Resume.Normalize()

	report := s.deps.AI.Score(r.Context(), req)
	s.deps.Obs.Metrics().RecordScore(r.Context(), "api", report)
	span.SetAttributes(attribute.Int("score.overall", report.OverallScore))

	s.writeJSON(w, http.StatusOK, report)
}

// batchScoreHandler handles POST /v1/score/batch. Results keep request order.
func (s *Server) batchScoreHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.score_batch")
	defer span.End()

	body, err := readBody(r, false)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	if err := schema.ValidateBatchRequest(body); err != nil {
		s.fail(w, span, err)
		return
	}

	var req types.BatchScoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.fail(w, span, errors.NewInputShapeError("request body does not match the expected shape", err))
		return
	}
	for i := range req.Items {
		req.Items[i].Resume.Normalize()
	}
	// only the item count is checked; each document is scored as it is
	if err := types.Validate(req); err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("batch.size", len(req.Items)))

	results := make([]types.ScoreReport, len(req.Items))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.BatchConcurrency)
	for i, item := range req.Items {
		g.Go(func() error {
			results[i] = s.deps.AI.Score(ctx, item)
			s.deps.Obs.Metrics().RecordScore(ctx, "batch", results[i])
			return nil
		})
	}
	_ = g.Wait()

	s.writeJSON(w, http.StatusOK, types.BatchScoreResponse{Results: results})
}

// extractKeywordsHandler handles POST /v1/keywords/extract
func (s *Server) extractKeywordsHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.extract_keywords")
	defer span.End()

	var req types.KeywordExtractRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	if err := types.Validate(req); err != nil {
		s.fail(w, span, err)
		return
	}

	resp := s.deps.AI.Keywords(r.Context(), req)
	span.SetAttributes(attribute.String("keywords.source", resp.Source))
	s.writeJSON(w, http.StatusOK, resp)
}

// improveBulletHandler handles POST /v1/bullets/improve
func (s *Server) improveBulletHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.improve_bullet")
	defer span.End()

	var req types.ImproveBulletRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	if err := types.Validate(req); err != nil {
		s.fail(w, span, err)
		return
	}

	resp, err := s.deps.AI.ImproveBullet(r.Context(), req)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// listResumesHandler handles GET /v1/resumes
func (s *Server) listResumesHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.list_resumes")
	defer span.End()

	summaries, err := s.deps.Store.List(r.Context(), owner(r))
	s.deps.Obs.Metrics().RecordStoreOperation(r.Context(), "list", err)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	if summaries == nil {
		summaries = []types.ResumeSummary{}
	}
	s.writeJSON(w, http.StatusOK, resumeListResponse{Resumes: summaries})
}

// putResumeHandler handles PUT /v1/resumes/{id}
func (s *Server) putResumeHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.put_resume")
	defer span.End()

	body, err := readBody(r, false)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	if err := schema.ValidateResume(body); err != nil {
		s.fail(w, span, err)
		return
	}

	var doc types.ResumeDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		s.fail(w, span, errors.NewInputShapeError("resume does not match the expected shape", err))
		return
	}
	doc.Normalize()
	if err := types.Validate(doc); err != nil {
		s.fail(w, span, err)
		return
	}

	stored, err := s.deps.Store.Save(r.Context(), owner(r), r.PathValue("id"), doc)
	s.deps.Obs.Metrics().RecordStoreOperation(r.Context(), "save", err)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

// getResumeHandler handles GET /v1/resumes/{id}
func (s *Server) getResumeHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.get_resume")
	defer span.End()

	stored, err := s.deps.Store.Load(r.Context(), owner(r), r.PathValue("id"))
	s.deps.Obs.Metrics().RecordStoreOperation(r.Context(), "load", err)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

// deleteResumeHandler handles DELETE /v1/resumes/{id}
func (s *Server) deleteResumeHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.delete_resume")
	defer span.End()

	err := s.deps.Store.Delete(r.Context(), owner(r), r.PathValue("id"))
	s.deps.Obs.Metrics().RecordStoreOperation(r.Context(), "delete", err)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scoreStoredResumeHandler handles POST /v1/resumes/{id}/score. The body is
// optional; without one the document's own target is used.
func (s *Server) scoreStoredResumeHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.score_stored")
	defer span.End()

	body, err := readBody(r, true)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	var opts storedScoreRequest
	if body != nil {
		if err := json.Unmarshal(body, &opts); err != nil {
			s.fail(w, span, errors.NewInputShapeError("request body does not match the expected shape", err))
			return
		}
	}

	stored, err := s.deps.Store.Load(r.Context(), owner(r), r.PathValue("id"))
	s.deps.Obs.Metrics().RecordStoreOperation(r.Context(), "load", err)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	report := s.deps.AI.Score(r.Context(), types.ScoreRequest{
		Resume:         stored.Document,
		JobDescription: opts.JobDescription,
		TargetKeywords: opts.TargetKeywords,
		UseAI:          opts.UseAI,
	})
	s.deps.Obs.Metrics().RecordScore(r.Context(), "stored", report)
	s.writeJSON(w, http.StatusOK, report)
}
