// Package debugserver exposes a small chi-routed HTTP introspection API
// over a running StateContainer: current graph size and a caller-supplied
// list of active subscriptions. SPEC_FULL.md §B.4 adds this as an optional
// operational surface; nothing in the core spec requires it. Kept generic
// over StateContainer[S] by taking plain provider functions rather than the
// container itself, since chi.Router handlers can't be parameterized.
package debugserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// GraphStats is the snapshot /debug/graph renders, as returned by
// reactor.GraphStats.
type GraphStats struct {
	Sources int `json:"sources"`
	Targets int `json:"targets"`
	Edges   int `json:"edges"`
}

// Subscription describes one active subscription for /debug/subscriptions.
type Subscription struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"createdAt"`
}

// Server is the debug HTTP surface. Construct with New, then use Router()
// as an http.Handler (mount it, or pass it straight to http.Serve).
type Server struct {
	router        chi.Router
	graphStats    func() GraphStats
	subscriptions func() []Subscription
}

// New builds a debug server. graphStats and subscriptions are called once
// per request, so they can reflect live state; subscriptions may be nil if
// the caller has nothing to report (the endpoint then returns an empty
// list rather than erroring).
func New(graphStats func() GraphStats, subscriptions func() []Subscription) *Server {
	s := &Server{graphStats: graphStats, subscriptions: subscriptions}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestIDHeader)
	r.Get("/debug/graph", s.handleGraph)
	r.Get("/debug/subscriptions", s.handleSubscriptions)
	s.router = r
	return s
}

// requestIDHeader stamps every response with a fresh UUID alongside chi's
// own request-scoped ID, for correlating a debug snapshot against external
// logs by a value that's visible to the client too.
func requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reactor-Debug-Request-Id", uuid.New().String())
		next.ServeHTTP(w, r)
	})
}

// Router returns the server's http.Handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.graphStats())
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, _ *http.Request) {
	subs := []Subscription{}
	if s.subscriptions != nil {
		subs = s.subscriptions()
	}
	writeJSON(w, subs)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
