package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/five82/satsrate/internal/convert"
	"github.com/five82/satsrate/internal/logging"
	"github.com/five82/satsrate/internal/offline"
	"github.com/five82/satsrate/internal/quote"
	"github.com/five82/satsrate/internal/share"
	"github.com/five82/satsrate/internal/state"
)

// Refresher fetches fresh rates into the store.
type Refresher interface {
	Refresh(ctx context.Context) (convert.RateSet, error)
}

// Options configure the host.
type Options struct {
	Store        *state.Store
	Refresher    Refresher
	Offline      *offline.Manager
	ShareBaseURL string
	Log          *logging.Log
	// Busy reports whether err means a refresh was already running.
	Busy func(err error) bool
}

// Server routes API, socket and intercepted asset requests.
type Server struct {
	store     *state.Store
	refresher Refresher
	offline   *offline.Manager
	baseURL   string
	log       *logging.Entry
	busy      func(error) bool
	router    chi.Router
}

func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logging.Default()
	}
	busy := opts.Busy
	if busy == nil {
		busy = func(error) bool { return false }
	}
	s := &Server{
		store:     opts.Store,
		refresher: opts.Refresher,
		offline:   opts.Offline,
		baseURL:   opts.ShareBaseURL,
		log:       log.WithComponent("server"),
		busy:      busy,
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/rates", s.handleRates)
		r.Post("/rates/refresh", s.handleRefresh)
		r.Get("/convert", s.handleConvert)
	})

	if s.offline != nil {
		r.Get("/sw", s.offline.ServeSocket)
		r.Post("/sw/install", s.handleInstall)
		r.Get("/sw/generations", s.handleGenerations)
		r.NotFound(s.offline.ServeHTTP)
		r.MethodNotAllowed(s.offline.ServeHTTP)
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logging.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

type ratesResponse struct {
	JPY       string    `json:"jpy"`
	USD       string    `json:"usd"`
	EUR       string    `json:"eur"`
	FetchedAt time.Time `json:"fetched_at"`
	Updated   string    `json:"updated"`
	Freshness string    `json:"freshness"`
}

func newRatesResponse(rates convert.RateSet, now time.Time) ratesResponse {
	return ratesResponse{
		JPY:       rates.JPY.String(),
		USD:       rates.USD.String(),
		EUR:       rates.EUR.String(),
		FetchedAt: rates.FetchedAt,
		Updated:   convert.FormatTimestamp(rates.FetchedAt),
		Freshness: state.Classify(rates.FetchedAt, now).String(),
	}
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if !snap.HasRates {
		writeError(w, http.StatusServiceUnavailable, convert.ErrRatesUnset)
		return
	}
	writeJSON(w, http.StatusOK, newRatesResponse(snap.Rates, time.Now()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	rates, err := s.refresher.Refresh(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newRatesResponse(rates, time.Now()))
	case s.busy(err):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, quote.ErrThrottled):
		writeError(w, http.StatusTooManyRequests, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

type convertResponse struct {
	Active  string            `json:"active"`
	Amounts map[string]string `json:"amounts"`
	Query   string            `json:"query"`
	Link    string            `json:"link"`
	Text    string            `json:"text"`
	Links   linksResponse     `json:"links"`
}

type linksResponse struct {
	Twitter    string `json:"twitter"`
	Nostter    string `json:"nostter"`
	MassDriver string `json:"massdriver"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	field, value, ok := share.ParseQuery(r.URL.RawQuery)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("one of btc, sats, jpy, usd or eur is required"))
		return
	}
	snap := s.store.Snapshot()
	if !snap.HasRates {
		writeError(w, http.StatusServiceUnavailable, convert.ErrRatesUnset)
		return
	}

	var raw convert.AmountSet
	raw.Set(field, value)
	res, err := convert.Recompute(field, raw, snap.Rates)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amounts := make(map[string]string, len(convert.Fields))
	for _, f := range convert.Fields {
		amounts[f.String()] = res.Amounts.Get(f)
	}
	targets := share.Links(s.baseURL, res.Amounts, res.Active)
	writeJSON(w, http.StatusOK, convertResponse{
		Active:  res.Active.String(),
		Amounts: amounts,
		Query:   share.QueryString(res.Amounts, res.Active),
		Link:    share.Link(s.baseURL, res.Amounts, res.Active),
		Text:    share.Text(res.Amounts, res.Active, s.baseURL),
		Links: linksResponse{
			Twitter:    targets.Twitter,
			Nostter:    targets.Nostter,
			MassDriver: targets.MassDriver,
		},
	})
}

type installRequest struct {
	Version string `json:"version"`
}

type generationResponse struct {
	Version string    `json:"version"`
	Status  string    `json:"status"`
	Since   time.Time `json:"since"`
}

// handleInstall runs an install to completion even if the caller hangs up.
func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	var req installRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	version := strings.TrimSpace(req.Version)
	if version == "" {
		writeError(w, http.StatusBadRequest, offline.ErrEmptyVersion)
		return
	}
	if err := s.offline.Install(context.WithoutCancel(r.Context()), version); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.handleGenerations(w, r)
}

func (s *Server) handleGenerations(w http.ResponseWriter, r *http.Request) {
	gens := s.offline.Generations()
	out := make([]generationResponse, 0, len(gens))
	for _, g := range gens {
		out = append(out, generationResponse{Version: g.Version, Status: g.Status.String(), Since: g.Since})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":      s.offline.ActiveVersion(),
		"installing":  s.offline.Installing(),
		"generations": out,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
