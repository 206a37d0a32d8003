package chi

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/experience"
	"github.com/kailas-cloud/scout/internal/domain/search/match"
	"github.com/kailas-cloud/scout/internal/domain/search/request"
	domusage "github.com/kailas-cloud/scout/internal/domain/usage"
	"github.com/kailas-cloud/scout/internal/logger"
	healthuc "github.com/kailas-cloud/scout/internal/usecase/health"
	searchuc "github.com/kailas-cloud/scout/internal/usecase/search"
	usageuc "github.com/kailas-cloud/scout/internal/usecase/usage"
)

// Fixed client-facing messages.
const (
	MsgRateLimited = "Too many requests. Please wait a moment before searching again."
	MsgInternal    = "Something went wrong. Please try again in a moment."
)

// Error codes of the catalog and usage endpoints.
const (
	codeNotFound   = "not_found"
	codeBadRequest = "bad_request"
	codeInternal   = "internal_error"
)

const defaultMaxBodyBytes = 16 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Catalog is the read-only view the catalog endpoints need.
type Catalog interface {
	All() []experience.Experience
	Get(id int) (experience.Experience, error)
	Tags() []string
}

// Options tunes request handling.
type Options struct {
	ClientHeader string // header carrying the client address, first entry wins
	FallbackKey  string // shared key for requests without the header
	MaxBodyBytes int64
}

// Server serves the search API over chi.
type Server struct {
	search        *searchuc.Service
	catalog       Catalog
	usage         *usageuc.Service
	health        *healthuc.Service
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	catalog Catalog,
	usage *usageuc.Service,
	health *healthuc.Service,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.ClientHeader == "" {
		opts.ClientHeader = "X-Forwarded-For"
	}
	if opts.FallbackKey == "" {
		opts.FallbackKey = "unknown"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		search:  search,
		catalog: catalog,
		usage:   usage,
		health:  health,
		opts:    opts,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		rateLimitHandler,
		validationHandler,
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/tags", s.ListTags)
	r.Get("/experiences", s.ListExperiences)
	r.Get("/experiences/{id}", s.GetExperience)
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		writeSearchError(w, http.StatusBadRequest, request.MsgInvalidBody)
		return
	}

	resp, err := s.search.Search(ctx, s.clientKey(r), body)
	setGenerationHeaders(w, usage)
	if err != nil {
		s.handleSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToJSON(resp))
}

// ListTags handles GET /tags.
func (s *Server) ListTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tagsResponse{Tags: s.catalog.Tags()})
}

// ListExperiences handles GET /experiences.
func (s *Server) ListExperiences(w http.ResponseWriter, _ *http.Request) {
	items := s.catalog.All()
	out := make([]experienceJSON, len(items))
	for i, e := range items {
		out[i] = experienceToJSON(e)
	}
	writeJSON(w, http.StatusOK, experiencesResponse{Experiences: out})
}

// GetExperience handles GET /experiences/{id}.
func (s *Server) GetExperience(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "experience id must be an integer")
		return
	}

	exp, err := s.catalog.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "experience not found")
			return
		}
		logger.FromContext(r.Context()).Error("Catalog lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, experienceToJSON(exp))
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period := domusage.PeriodMonth
	if p := r.URL.Query().Get("period"); p != "" {
		period = domusage.Period(p)
		if !period.IsValid() {
			writeError(w, http.StatusBadRequest, codeBadRequest, "period must be one of day, month, total")
			return
		}
	}

	report := s.usage.GetReport(r.Context(), period)
	budget := report.Budget()

	resp := usageResponse{
		Period:   string(report.Period()),
		Provider: report.Provider(),
		Usage:    usageMetrics{Tokens: report.TokensUsed()},
		Budget: budgetStatus{
			TokensLimit:     budget.TokensLimit(),
			TokensRemaining: budget.TokensRemaining(),
			IsExhausted:     budget.IsExhausted(),
		},
	}

	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	if budget.ResetsAt() > 0 {
		resetsAt := time.UnixMilli(budget.ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
// Only an unhealthy report returns 503: a degraded service still answers searches.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// clientKey takes the first entry of the client header. Requests without it
// share the fallback key.
func (s *Server) clientKey(r *http.Request) string {
	v := r.Header.Get(s.opts.ClientHeader)
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return s.opts.FallbackKey
}

func (s *Server) handleSearchError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Info("Search rejected", zap.Error(err))
			return
		}
	}
	log.Error("Search failed", zap.Error(err))
	writeSearchError(w, http.StatusInternalServerError, MsgInternal)
}

// rateLimitHandler answers 429 with Retry-After rounded up to whole seconds.
func rateLimitHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	var rle *domain.RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > 0 {
		secs := int(math.Ceil(rle.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeSearchError(w, http.StatusTooManyRequests, MsgRateLimited)
	return true
}

// validationHandler answers 400 with the first violated rule, verbatim.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	msg := request.MsgInvalidBody
	var ve *request.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Message
	}
	writeSearchError(w, http.StatusBadRequest, msg)
	return true
}

func setGenerationHeaders(w http.ResponseWriter, usage *domain.GenerationUsage) {
	if !usage.Used() {
		return
	}
	w.Header().Set("X-Generation-Tokens", strconv.Itoa(usage.TotalTokens()))
	if usage.Cached() {
		w.Header().Set("X-Generation-Cache", "hit")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeSearchError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, searchResponse{Results: []matchResultJSON{}, Message: message})
}

func searchResponseToJSON(resp searchuc.Response) searchResponse {
	out := searchResponse{
		Results: make([]matchResultJSON, len(resp.Results)),
		Message: resp.Message,
	}
	for i, r := range resp.Results {
		out.Results[i] = matchResultToJSON(r)
	}
	return out
}

func matchResultToJSON(r match.Result) matchResultJSON {
	return matchResultJSON{
		Experience: experienceToJSON(r.Experience()),
		Reason:     r.Reason(),
		Score:      r.Score(),
	}
}

func experienceToJSON(e experience.Experience) experienceJSON {
	return experienceJSON{
		ID:          e.ID(),
		Title:       e.Title(),
		Description: e.Description(),
		Location:    e.Location(),
		Price:       e.Price(),
		Tags:        e.Tags(),
	}
}
