package chi

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pixsearch/internal/domain/query"
	logpkg "github.com/kailas-cloud/pixsearch/internal/logger"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
	healthuc "github.com/kailas-cloud/pixsearch/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

// Session addressing. Browsers carry the cookie; API clients may send the header instead.
const (
	SessionCookie = "pixsearch_sid"
	SessionHeader = "X-Session-ID"
)

// FieldSearchQuery is the name of the search form input.
const FieldSearchQuery = "searchQuery"

const maxBodyBytes = 4 << 10

// SearchParams are the query parameters of GET /api/search.
type SearchParams struct {
	Q    string
	Page *int
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Items          []gallery.DisplayItem `json:"items"`
	TotalAvailable int                   `json:"total_available"`
	Page           int                   `json:"page"`
	PageSize       int                   `json:"page_size"`
	HasMore        bool                  `json:"has_more"`
}

// SubmitRequest is the body of POST /api/session/search.
type SubmitRequest struct {
	Q string `json:"q"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Server serves the search page and the JSON API on top of session registry.
type Server struct {
	sessions *sessionuc.Registry
	fetcher  sessionuc.PageFetcher
	renderer *gallery.Renderer
	health   *healthuc.Service
	healthMu sync.Mutex
	logger   *zap.Logger

	apiKeys      []string
	cookieTTL    time.Duration
	secureCookie bool

	errorHandlers []errorHandler
}

// NewServer creates an HTTP server.
func NewServer(
	sessions *sessionuc.Registry,
	fetcher sessionuc.PageFetcher,
	renderer *gallery.Renderer,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		sessions:      sessions,
		fetcher:       fetcher,
		renderer:      renderer,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithAPIKeys protects the /api routes with Bearer authentication.
func (s *Server) WithAPIKeys(keys []string) *Server {
	s.apiKeys = keys
	return s
}

// WithSessionCookie sets the session cookie lifetime and Secure flag.
func (s *Server) WithSessionCookie(ttl time.Duration, secure bool) *Server {
	s.cookieTTL = ttl
	s.secureCookie = secure
	return s
}

// Mount registers every route on r.
func (s *Server) Mount(r chirouter.Router) {
	r.Get("/", s.Index)
	r.Post("/search", s.Search)
	r.Post("/more", s.More)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chirouter.Router) {
		r.Use(BearerAuthMiddleware(s.apiKeys))
		r.Get("/search", s.APISearch)
		r.Get("/session", s.APISession)
		r.Delete("/session", s.APIForget)
		r.Post("/session/search", s.APISubmit)
		r.Post("/session/more", s.APILoadMore)
	})
}

// Index handles GET /. Pending notices are shown once.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	st := sessionuc.NewState()
	var notices []sessionuc.Notice

	if id, ok := s.sessionID(r); ok {
		var err error
		st, err = s.sessions.Do(r.Context(), id, func(ss *sessionuc.Session) error {
			notices = ss.DrainNotices()
			return nil
		})
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}

	s.renderPage(w, r, pageView{State: st, Notices: notices})
}

// Search handles POST /search. Failures are reported through session notices.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid form")
		return
	}
	term := r.PostFormValue(FieldSearchQuery)
	id := s.ensureSession(w, r)

	var outcome error
	_, err := s.sessions.Do(r.Context(), id, func(ss *sessionuc.Session) error {
		outcome = ss.Submit(r.Context(), term)
		return nil
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if outcome != nil {
		logpkg.FromContext(r.Context()).Debug("search finished with notice", zap.Error(outcome))
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// More handles POST /more. On success the redirect lands on the first new item.
func (s *Server) More(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	firstNew := 0
	var outcome error
	_, err := s.sessions.Do(r.Context(), id, func(ss *sessionuc.Session) error {
		firstNew = ss.State().Gallery.Len()
		outcome = ss.LoadMore(r.Context())
		return nil
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if outcome != nil {
		logpkg.FromContext(r.Context()).Debug("load more finished with notice", zap.Error(outcome))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/#"+gallery.Anchor(firstNew), http.StatusSeeOther)
}

// APISearch handles GET /api/search. It does not touch any session.
func (s *Server) APISearch(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	values := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", values, &params.Q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", values, &params.Page); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request: "+err.Error())
		return
	}

	pageNum := 1
	if params.Page != nil {
		pageNum = *params.Page
	}
	q, err := query.New(params.Q, pageNum)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	pageSize := s.renderer.PageSize()
	p, err := s.fetcher.FetchPage(r.Context(), q.Term(), q.Page(), pageSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Items:          s.renderer.Render(p.Items()),
		TotalAvailable: p.TotalAvailable(),
		Page:           q.Page(),
		PageSize:       pageSize,
		HasMore:        p.HasMore(pageSize),
	})
}

// APISession handles GET /api/session.
func (s *Server) APISession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(r)
	if !ok {
		writeJSON(w, http.StatusOK, sessionuc.NewState())
		return
	}
	w.Header().Set(SessionHeader, id)

	st, err := s.sessions.Do(r.Context(), id, func(*sessionuc.Session) error { return nil })
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// APIForget handles DELETE /api/session. The session id stays usable and starts idle.
func (s *Server) APIForget(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.sessions.Forget(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// APISubmit handles POST /api/session/search.
func (s *Server) APISubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.apiMutate(w, r, func(ss *sessionuc.Session) error {
		return ss.Submit(r.Context(), req.Q)
	})
}

// APILoadMore handles POST /api/session/more.
func (s *Server) APILoadMore(w http.ResponseWriter, r *http.Request) {
	s.apiMutate(w, r, func(ss *sessionuc.Session) error {
		return ss.LoadMore(r.Context())
	})
}

// apiMutate runs op and replies with the resulting state, its notices included.
func (s *Server) apiMutate(w http.ResponseWriter, r *http.Request, op func(*sessionuc.Session) error) {
	id := s.ensureSession(w, r)

	var notices []sessionuc.Notice
	st, err := s.sessions.Do(r.Context(), id, func(ss *sessionuc.Session) error {
		opErr := op(ss)
		notices = ss.DrainNotices()
		return opErr
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	st.Notices = notices
	writeJSON(w, http.StatusOK, st)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	s.healthMu.Lock()
	report := s.health.Check(r.Context())
	s.healthMu.Unlock()

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// sessionID returns the caller's session id if it carries a well-formed one.
func (s *Server) sessionID(r *http.Request) (string, bool) {
	if id := r.Header.Get(SessionHeader); sessionuc.ValidID(id) {
		return id, true
	}
	if c, err := r.Cookie(SessionCookie); err == nil && sessionuc.ValidID(c.Value) {
		return c.Value, true
	}
	return "", false
}

// ensureSession returns the caller's session id, issuing a new one if needed.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	id, ok := s.sessionID(r)
	if !ok {
		id = s.sessions.NewID()
	}

	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cookieTTL > 0 {
		cookie.MaxAge = int(s.cookieTTL.Seconds())
	}
	http.SetCookie(w, cookie)
	w.Header().Set(SessionHeader, id)
	return id
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
