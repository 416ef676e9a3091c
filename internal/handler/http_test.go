package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/result"
	"github.com/ugaemi/geohunt-server/internal/room"
	"github.com/ugaemi/geohunt-server/internal/store"
)

type mockResultStore struct {
	results   []*result.GameResult
	err       error
	lastLimit int
}

func (m *mockResultStore) SaveResult(_ context.Context, r *result.GameResult) error {
	m.results = append(m.results, r)
	return nil
}

func (m *mockResultStore) RecentResults(_ context.Context, limit int) ([]*result.GameResult, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockResultStore) Close() error { return nil }

func serveHTTP(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	h := NewHTTPHandler(HTTPConfig{Registry: s.reg})

	rec := serveHTTP(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, testStart.UnixMilli(), body.Timestamp)
}

func TestRooms(t *testing.T) {
	s := newTestServer()
	f := s.setupLobby(t)
	h := NewHTTPHandler(HTTPConfig{Registry: s.reg})

	rec := serveHTTP(t, h, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)

	var rooms []room.RoomSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, f.code, rooms[0].Code)
	assert.Equal(t, game.StatusLobby, rooms[0].Status)
	assert.Equal(t, 2, rooms[0].PlayerCount)
	assert.True(t, rooms[0].HasArea)
}

func TestRooms_Empty(t *testing.T) {
	s := newTestServer()
	h := NewHTTPHandler(HTTPConfig{Registry: s.reg})

	rec := serveHTTP(t, h, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRoomQR(t *testing.T) {
	s := newTestServer()
	f := s.setupLobby(t)
	h := NewHTTPHandler(HTTPConfig{Registry: s.reg, JoinURLBase: "geohunt://join/"})

	rec := serveHTTP(t, h, "/rooms/"+f.code+"/qr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = serveHTTP(t, h, "/rooms/NOPE00/qr")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResults(t *testing.T) {
	s := newTestServer()
	results := &mockResultStore{
		results: []*result.GameResult{{ID: "r1", RoomCode: "ABC123", Reason: game.EndTimeUp}},
	}
	h := NewHTTPHandler(HTTPConfig{Registry: s.reg, Results: results})

	rec := serveHTTP(t, h, "/results")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultResultLimit, results.lastLimit)

	var list []result.GameResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ABC123", list[0].RoomCode)

	serveHTTP(t, h, "/results?limit=500")
	assert.Equal(t, maxResultLimit, results.lastLimit)

	rec = serveHTTP(t, h, "/results?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResults_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		results store.ResultStore
		want    int
	}{
		{"no store", nil, http.StatusServiceUnavailable},
		{"archive disabled", store.NopStore{}, http.StatusServiceUnavailable},
		{"store failure", &mockResultStore{err: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHTTPHandler(HTTPConfig{Registry: newTestServer().reg, Results: tt.results})
			rec := serveHTTP(t, h, "/results")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
