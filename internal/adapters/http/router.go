package httpadapter

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
	"github.com/riksdagskollen/riksdagsanalys/internal/observability/metrics"
)

const serviceName = "riksdagsanalys-api"

type Router struct {
	submitter ports.AnalysisSubmitter
	poller    ports.JobPoller
	ingestor  ports.ResultIngestor
	syncer    ports.DataSyncer
	jobs      ports.JobStore

	metrics         *metrics.HTTPServerMetrics
	adminToken      string
	defaultSessions []string
	rateLimitRPS    float64
	rateLimitBurst  int
}

type RouterOptions struct {
	AdminToken      string
	DefaultSessions []string
	RateLimitRPS    float64
	RateLimitBurst  int
	Metrics         *metrics.HTTPServerMetrics
}

func NewRouter(
	submitter ports.AnalysisSubmitter,
	poller ports.JobPoller,
	ingestor ports.ResultIngestor,
	syncer ports.DataSyncer,
	jobs ports.JobStore,
	options RouterOptions,
) *Router {
	return &Router{
		submitter:       submitter,
		poller:          poller,
		ingestor:        ingestor,
		syncer:          syncer,
		jobs:            jobs,
		metrics:         options.Metrics,
		adminToken:      options.AdminToken,
		defaultSessions: options.DefaultSessions,
		rateLimitRPS:    options.RateLimitRPS,
		rateLimitBurst:  options.RateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/analysis/submit", rt.authorized(rt.submitAnalysis))
	mux.HandleFunc("/v1/analysis/results", rt.authorized(rt.processResults))
	mux.HandleFunc("/v1/analysis/jobs", rt.authorized(rt.listJobs))
	mux.HandleFunc("/v1/analysis/jobs/", rt.authorized(rt.jobByID))
	mux.HandleFunc("/v1/analysis/report", rt.authorized(rt.jobReport))
	mux.HandleFunc("/v1/admin/sync", rt.authorized(rt.syncData))
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, 32, 50*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.adminToken == "" {
			next(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(rt.adminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing bearer token"})
			return
		}
		next(w, r)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// submitAnalysis is the two-step money gate: without confirm=true the
// request only prices the batch, nothing leaves the building.
func (rt *Router) submitAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Kind    string `json:"kind"`
		Limit   int    `json:"limit"`
		Confirm bool   `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	kind, ok := domain.ParseAnalysisKind(req.Kind)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown analysis kind"})
		return
	}

	if !req.Confirm {
		estimate, err := rt.submitter.Estimate(r.Context(), kind, req.Limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"estimate":         estimate,
			"confirm_required": true,
		})
		return
	}

	receipt, err := rt.submitter.Submit(r.Context(), kind, req.Limit)
	if err != nil {
		// A mid-run chunk failure still created jobs; report both.
		if receipt != nil && len(receipt.JobIDs) > 0 {
			rt.recordSubmission(receipt)
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":   err.Error(),
				"receipt": receipt,
			})
			return
		}
		writeError(w, err)
		return
	}

	rt.recordSubmission(receipt)
	writeJSON(w, http.StatusAccepted, receipt)
}

func (rt *Router) recordSubmission(receipt *domain.SubmitReceipt) {
	if rt.metrics == nil || receipt == nil {
		return
	}
	rt.metrics.RecordSubmission(serviceName, string(receipt.Kind), len(receipt.JobIDs), receipt.ItemCount, receipt.EstimatedCostUSD)
}

func (rt *Router) processResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		JobID  string `json:"job_id"`
		FileID string `json:"file_id"`
		Kind   string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	var stats domain.ProcessStats
	var err error
	switch {
	case req.JobID != "":
		stats, err = rt.ingestor.ProcessJobResults(r.Context(), req.JobID)
	case req.FileID != "":
		kind, ok := domain.ParseAnalysisKind(req.Kind)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind is required with file_id"})
			return
		}
		stats, err = rt.ingestor.ProcessResults(r.Context(), req.FileID, kind)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job_id or file_id is required"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordResultLines(serviceName, stats.Stored, stats.Skipped, stats.Failed)
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) listJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	jobs, err := rt.jobs.ListJobs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (rt *Router) jobByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/analysis/jobs/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	if jobID, found := strings.CutSuffix(rest, "/poll"); found {
		rt.pollJob(w, r, jobID)
		return
	}

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	job, err := rt.jobs.GetJob(r.Context(), rest)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (rt *Router) pollJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	batch, err := rt.poller.PollOnce(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":         batch.ID,
		"status":         batch.Status,
		"request_counts": batch.Counts,
		"output_file_id": batch.OutputFileID,
	})
}

func (rt *Router) syncData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Sessions []string `json:"sessions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	sessions := req.Sessions
	if len(sessions) == 0 {
		sessions = rt.defaultSessions
	}

	report, err := rt.syncer.SyncAll(r.Context(), sessions)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSyncRecords(serviceName, report.Members, report.Motions, report.Votes, report.Speeches)
	}
	writeJSON(w, http.StatusOK, report)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
