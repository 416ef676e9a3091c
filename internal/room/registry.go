package room

import (
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/ugaemi/geohunt-server/internal/clock"
	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

// Registry manages all active rooms together with the rate limiter and the
// per-room game timers.
//
// Lock order is registry then room. Room methods never call back into the
// registry.
type Registry struct {
	rooms   map[string]*Room // code -> room
	clock   clock.Clock
	rng     game.RandSource
	limiter *RateLimiter
	timers  *TimerSet
	mu      deadlock.RWMutex

	// OnGameEnd is called after a game ended and its summary was broadcast.
	OnGameEnd func(summary GameSummary)
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// NewRegistry creates an empty registry. A nil clk uses the wall clock and
// a nil rng uses math/rand.
func NewRegistry(clk clock.Clock, rng game.RandSource) *Registry {
	if clk == nil {
		clk = clock.Real{}
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &Registry{
		rooms:   make(map[string]*Room),
		clock:   clk,
		rng:     rng,
		limiter: NewRateLimiter(game.LocationUpdateInterval),
		timers:  NewTimerSet(clk),
	}
}

// Clock returns the registry's time source.
func (g *Registry) Clock() clock.Clock {
	return g.clock
}

// CreateRoom creates a new room with a fresh host player.
func (g *Registry) CreateRoom(hostName string, sender Sender) (*Room, *game.Player) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := GenerateCode(func(c string) bool {
		_, ok := g.rooms[c]
		return ok
	})
	host := game.NewPlayer(hostName)
	r := NewRoom(code, host, sender, g.clock.Now())
	g.rooms[code] = r

	slog.Info("room created", "code", code, "host", host.ID)
	return r, host.Clone()
}

// GetRoom returns a room by its code. Lookup is case-insensitive.
func (g *Registry) GetRoom(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// DeleteRoom removes a room and cancels its game timer. Scheduled work that
// still holds the room becomes a no-op.
func (g *Registry) DeleteRoom(code string) bool {
	g.mu.Lock()
	r, ok := g.rooms[code]
	delete(g.rooms, code)
	g.mu.Unlock()
	if !ok {
		return false
	}

	r.markClosed()
	g.timers.Cancel(code)

	r.mu.RLock()
	for id := range r.players {
		g.limiter.Forget(id)
	}
	r.mu.RUnlock()

	slog.Info("room removed", "code", code)
	return true
}

// AddPlayer adds a new player to a lobby room.
func (g *Registry) AddPlayer(code, name string, sender Sender) (*Room, *game.Player, error) {
	r, err := g.GetRoom(code)
	if err != nil {
		return nil, nil, err
	}
	player := game.NewPlayer(name)
	if err := r.addPlayer(player, sender); err != nil {
		return nil, nil, err
	}
	slog.Debug("player added", "player", player.ID, "room", r.Code)
	return r, player.Clone(), nil
}

// LeaveResult describes what happened to a room after a player left.
type LeaveResult struct {
	RemoveResult
	Room     *Room
	Deleted  bool
	TornDown bool
}

// RemovePlayer removes a player. The room is deleted when it becomes empty
// and torn down when the host leaves a lobby. A game left with no uncaptured
// evader ends.
func (g *Registry) RemovePlayer(code, playerID string) (LeaveResult, error) {
	r, err := g.GetRoom(code)
	if err != nil {
		return LeaveResult{}, err
	}

	res := LeaveResult{RemoveResult: r.removePlayer(playerID), Room: r}
	if !res.Removed {
		return res, ErrPlayerNotFound
	}
	g.limiter.Forget(playerID)
	slog.Info("player left room", "player", playerID, "room", r.Code)

	switch {
	case res.Empty:
		res.Deleted = g.DeleteRoom(r.Code)
	case res.WasHost && res.Status == game.StatusLobby:
		res.TornDown = g.DeleteRoom(r.Code)
	case res.Status == game.StatusInProgress:
		g.CheckGameEnd(r.Code)
	}
	return res, nil
}

// UpdateRole sets a player's role while in the lobby.
func (g *Registry) UpdateRole(code, playerID string, role game.Role) error {
	r, err := g.GetRoom(code)
	if err != nil {
		return err
	}
	return r.setRole(playerID, role)
}

// UpdateArea sets the game area. Host only, lobby only.
func (g *Registry) UpdateArea(code, callerID string, area game.Area) error {
	r, err := g.GetRoom(code)
	if err != nil {
		return err
	}
	return r.setArea(callerID, area)
}

// SetDuration sets or clears the game duration. Host only, lobby only.
func (g *Registry) SetDuration(code, callerID string, d *time.Duration) error {
	r, err := g.GetRoom(code)
	if err != nil {
		return err
	}
	return r.setDuration(callerID, d)
}

// StartGame starts the game and arms the game timer when a duration is set.
func (g *Registry) StartGame(code, callerID string) error {
	r, err := g.GetRoom(code)
	if err != nil {
		return err
	}
	d, err := r.start(callerID, g.clock.Now(), g.rng)
	if err != nil {
		return err
	}
	if d != nil {
		g.timers.Schedule(r.Code, *d, func() {
			g.EndGame(r.Code, game.EndTimeUp)
		})
	}
	return nil
}

// UpdateLocation records a location update subject to the rate limiter.
func (g *Registry) UpdateLocation(code, playerID string, loc game.Location) (LocationResult, error) {
	r, err := g.GetRoom(code)
	if err != nil {
		return LocationResult{}, err
	}
	return r.updateLocation(playerID, loc, g.clock.Now(), g.limiter)
}

// AttemptCatch validates a catch attempt and applies the capture. Callers
// follow a capture with CheckGameEnd once the capture is broadcast.
func (g *Registry) AttemptCatch(code, captorID, targetID string) (CatchResult, error) {
	r, err := g.GetRoom(code)
	if err != nil {
		return CatchResult{}, err
	}
	return r.attemptCatch(captorID, targetID)
}

// CapturePlayer marks a player captured without a proximity check.
func (g *Registry) CapturePlayer(code, playerID string) bool {
	r, err := g.GetRoom(code)
	if err != nil {
		return false
	}
	return r.capture(playerID)
}

// UpdateRevealState overwrites a room's reveal state.
func (g *Registry) UpdateRevealState(code string, s RevealState) bool {
	r, err := g.GetRoom(code)
	if err != nil {
		return false
	}
	r.setRevealState(s)
	return true
}

// RemoveBonusArea deletes a bonus area from a room.
func (g *Registry) RemoveBonusArea(code, bonusAreaID string) bool {
	r, err := g.GetRoom(code)
	if err != nil {
		return false
	}
	return r.removeBonusArea(bonusAreaID)
}

// EndGame ends an in-progress game for reason, broadcasts the summary and
// the refreshed room state, and cancels the game timer. Calls on a room
// that is not in progress are no-ops.
func (g *Registry) EndGame(code string, reason game.EndReason) (*GameSummary, bool) {
	return g.endGame(code, reason, false)
}

// CheckGameEnd ends the game with EndAllCaptured if every evader is
// captured.
func (g *Registry) CheckGameEnd(code string) (*GameSummary, bool) {
	return g.endGame(code, game.EndAllCaptured, true)
}

func (g *Registry) endGame(code string, reason game.EndReason, onlyIfAllCaptured bool) (*GameSummary, bool) {
	r, err := g.GetRoom(code)
	if err != nil {
		return nil, false
	}
	summary, ok := r.finish(reason, g.clock.Now(), onlyIfAllCaptured)
	if !ok {
		return nil, false
	}
	g.timers.Cancel(r.Code)

	slog.Info("game ended", "room", r.Code, "reason", reason,
		"evaders", summary.EvaderCount, "captured", summary.CapturedCount)

	r.Broadcast(ws.TypeGameEnd, summary)
	r.BroadcastState()

	if g.OnGameEnd != nil {
		g.OnGameEnd(*summary)
	}
	return summary, true
}

// TimerArmed reports whether a game timer is armed for the room.
func (g *Registry) TimerArmed(code string) bool {
	return g.timers.Armed(code)
}

// Rooms returns all active rooms ordered by code.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Code < rooms[j].Code })
	return rooms
}

// Summaries returns a listing entry for every active room.
func (g *Registry) Summaries() []RoomSummary {
	rooms := g.Rooms()
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	return out
}

// RoomCount returns the number of active rooms.
func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
