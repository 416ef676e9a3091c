package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ugaemi/geohunt-server/internal/clock"
	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/geo"
	"github.com/ugaemi/geohunt-server/internal/room"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

var (
	testStart  = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	testCenter = geo.Point{Latitude: 37.5665, Longitude: 126.9780}
)

func mockClient(id string) *ws.Client {
	return &ws.Client{
		ID:   id,
		Send: make(chan []byte, 256),
	}
}

// drainMessages reads all pending messages from a client's send channel.
func drainMessages(client *ws.Client) []ws.Message {
	var msgs []ws.Message
	for {
		select {
		case data := <-client.Send:
			var msg ws.Message
			if err := json.Unmarshal(data, &msg); err == nil {
				msgs = append(msgs, msg)
			}
		default:
			return msgs
		}
	}
}

// findMessageByType finds the first message of a given type.
func findMessageByType(msgs []ws.Message, msgType string) *ws.Message {
	for _, m := range msgs {
		if m.Type == msgType {
			return &m
		}
	}
	return nil
}

func decode[T any](t *testing.T, msg *ws.Message) T {
	t.Helper()
	require.NotNil(t, msg)
	var v T
	require.NoError(t, json.Unmarshal(msg.Data, &v))
	return v
}

type testServer struct {
	clk    *clock.Fake
	reg    *room.Registry
	router *Router
}

func newTestServer() *testServer {
	clk := clock.NewFake(testStart)
	reg := room.NewRegistry(clk, nil)
	return &testServer{clk: clk, reg: reg, router: NewRouter(reg)}
}

// send dispatches a command from client as if it arrived over the socket.
func (s *testServer) send(t *testing.T, client *ws.Client, msgType, id string, payload any) {
	t.Helper()
	msg := ws.Message{Type: msgType, ID: id}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Data = data
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	s.router.HandleMessage(&ws.ClientMessage{Client: client, Data: raw})
}

func (s *testServer) createRoom(t *testing.T, client *ws.Client, name string) createRoomResponse {
	t.Helper()
	s.send(t, client, ws.TypeCreateRoom, "", createRoomRequest{Name: name})
	resp := decode[createRoomResponse](t, findMessageByType(drainMessages(client), ws.TypeCreateRoom))
	require.True(t, resp.Success)
	return resp
}

func (s *testServer) joinRoom(t *testing.T, client *ws.Client, code, name string) joinRoomResponse {
	t.Helper()
	s.send(t, client, ws.TypeJoinRoom, "", joinRoomRequest{Code: code, Name: name})
	resp := decode[joinRoomResponse](t, findMessageByType(drainMessages(client), ws.TypeJoinRoom))
	require.True(t, resp.Success, resp.Error)
	return resp
}

func (s *testServer) moveTo(t *testing.T, client *ws.Client, north, east float64) {
	t.Helper()
	p := geo.Offset(testCenter, north, east)
	s.send(t, client, ws.TypeLocationUpdate, "", locationUpdateRequest{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timestamp: s.clk.Now().UnixMilli(),
	})
}

type lobbyFixture struct {
	code    string
	host    *ws.Client
	guest   *ws.Client
	hostID  string
	guestID string
}

// setupLobby creates a room with a host pursuer, a guest evader and an area.
func (s *testServer) setupLobby(t *testing.T) lobbyFixture {
	t.Helper()
	return s.setupLobbyWith(t, mockClient("host"), mockClient("guest"))
}

func (s *testServer) setupLobbyWith(t *testing.T, host, guest *ws.Client) lobbyFixture {
	t.Helper()
	created := s.createRoom(t, host, "Host")
	joined := s.joinRoom(t, guest, created.Code, "Guest")

	s.send(t, host, ws.TypeSelectRole, "", selectRoleRequest{Role: "pursuer"})
	s.send(t, guest, ws.TypeSelectRole, "", selectRoleRequest{Role: "evader"})
	s.send(t, host, ws.TypeUpdateArea, "", updateAreaRequest{Center: testCenter, RadiusMeters: 1000})
	drainMessages(host)
	drainMessages(guest)

	return lobbyFixture{
		code:    created.Code,
		host:    host,
		guest:   guest,
		hostID:  created.PlayerID,
		guestID: joined.PlayerID,
	}
}

func (s *testServer) setupGame(t *testing.T) lobbyFixture {
	t.Helper()
	return s.setupGameWith(t, mockClient("host"), mockClient("guest"))
}

func (s *testServer) setupGameWith(t *testing.T, host, guest *ws.Client) lobbyFixture {
	t.Helper()
	f := s.setupLobbyWith(t, host, guest)
	s.send(t, f.host, ws.TypeStartGame, "", nil)
	r, err := s.reg.GetRoom(f.code)
	require.NoError(t, err)
	require.Equal(t, game.StatusInProgress, r.Status())
	drainMessages(f.host)
	drainMessages(f.guest)
	return f
}
