package debugserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HandleGraphReturnsProvidedStats(t *testing.T) {
	s := New(func() GraphStats { return GraphStats{Sources: 1, Targets: 2, Edges: 3} }, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/graph", nil)
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got GraphStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, GraphStats{Sources: 1, Targets: 2, Edges: 3}, got)
}

func TestServer_HandleSubscriptionsReturnsEmptyListWhenProviderIsNil(t *testing.T) {
	s := New(func() GraphStats { return GraphStats{} }, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/subscriptions", nil)
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []Subscription
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Empty(t, got)
}

func TestServer_HandleSubscriptionsReturnsProvidedList(t *testing.T) {
	want := []Subscription{{ID: "sub-1", Kind: "value", CreatedAt: "2026-01-01T00:00:00Z"}}
	s := New(func() GraphStats { return GraphStats{} }, func() []Subscription { return want })

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/subscriptions", nil)
	s.Router().ServeHTTP(rr, req)

	var got []Subscription
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, want, got)
}

func TestServer_StampsRequestIDHeader(t *testing.T) {
	s := New(func() GraphStats { return GraphStats{} }, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/graph", nil)
	s.Router().ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("X-Reactor-Debug-Request-Id"))
}
