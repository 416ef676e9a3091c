package room

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

// Sender delivers a message to one connection.
type Sender interface {
	SendMessage(msg ws.Message)
}

// RevealState tracks the periodic evader reveal. RevealEndsAt is never set:
// a reveal snapshot stays authoritative until the next one replaces it.
type RevealState struct {
	IsRevealing  bool
	NextRevealAt time.Time
	RevealEndsAt time.Time
}

func (s RevealState) payload() RevealStatePayload {
	return RevealStatePayload{
		IsRevealing:  s.IsRevealing,
		NextRevealAt: unixMilli(s.NextRevealAt),
		RevealEndsAt: unixMilli(s.RevealEndsAt),
	}
}

// Room holds all state of one game session. Every read and write goes
// through mu.
type Room struct {
	Code string

	hostID       string
	status       game.RoomStatus
	area         *game.Area
	duration     *time.Duration
	players      map[string]*game.Player
	order        []string // join order of player IDs
	movements    map[string][]game.Location
	bonusAreas   []game.BonusArea
	bonusReveals map[string]time.Time // player ID -> revealed until
	reveal       RevealState
	revealed     []*game.Player // last reveal snapshot
	createdAt    time.Time
	startedAt    time.Time
	endedAt      time.Time
	closed       bool

	// Client mapping: player ID -> connection
	clients map[string]Sender

	mu deadlock.RWMutex
}

// NewRoom creates a lobby room with host as its only member.
func NewRoom(code string, host *game.Player, sender Sender, now time.Time) *Room {
	host.IsHost = true
	return &Room{
		Code:         code,
		hostID:       host.ID,
		status:       game.StatusLobby,
		players:      map[string]*game.Player{host.ID: host},
		order:        []string{host.ID},
		movements:    make(map[string][]game.Location),
		bonusReveals: make(map[string]time.Time),
		clients:      map[string]Sender{host.ID: sender},
		createdAt:    now,
	}
}

// addPlayer adds a non-host player. Joining is only possible in the lobby.
func (r *Room) addPlayer(player *game.Player, sender Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if r.status != game.StatusLobby {
		return ErrGameInProgress
	}

	player.IsHost = false
	r.players[player.ID] = player
	r.order = append(r.order, player.ID)
	r.clients[player.ID] = sender
	return nil
}

// RemoveResult describes the room after a player left.
type RemoveResult struct {
	Removed bool
	WasHost bool
	Status  game.RoomStatus
	Empty   bool
	NewHost string
}

// removePlayer removes a player. When the host leaves after the lobby the
// host role passes to the earliest remaining member.
func (r *Room) removePlayer(playerID string) RemoveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[playerID]; !ok {
		return RemoveResult{Status: r.status, Empty: len(r.players) == 0}
	}

	delete(r.players, playerID)
	delete(r.clients, playerID)
	delete(r.bonusReveals, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	res := RemoveResult{
		Removed: true,
		WasHost: r.hostID == playerID,
		Status:  r.status,
		Empty:   len(r.players) == 0,
	}

	if res.WasHost && !res.Empty && r.status != game.StatusLobby {
		r.hostID = r.order[0]
		r.players[r.hostID].IsHost = true
		res.NewHost = r.hostID
	}
	return res
}

func (r *Room) setRole(playerID string, role game.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if r.status != game.StatusLobby {
		return ErrNotInLobby
	}
	p.SetRole(role)
	return nil
}

// requireHost checks caller is the lobby host. Caller must hold r.mu.
func (r *Room) requireHost(callerID string) error {
	if _, ok := r.players[callerID]; !ok {
		return ErrPlayerNotFound
	}
	if r.hostID != callerID {
		return ErrNotHost
	}
	return nil
}

func (r *Room) setArea(callerID string, area game.Area) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(callerID); err != nil {
		return err
	}
	if r.status != game.StatusLobby {
		return ErrNotInLobby
	}
	if err := area.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArea, err)
	}
	r.area = &area
	return nil
}

func (r *Room) setDuration(callerID string, d *time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(callerID); err != nil {
		return err
	}
	if r.status != game.StatusLobby {
		return ErrNotInLobby
	}
	if d != nil && *d <= 0 {
		return ErrInvalidDuration
	}
	r.duration = d
	return nil
}

// start moves the room from LOBBY to IN_PROGRESS, generates bonus areas
// and arms the first reveal. It returns the configured game duration.
func (r *Room) start(callerID string, now time.Time, rng game.RandSource) (*time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(callerID); err != nil {
		return nil, err
	}
	if r.status != game.StatusLobby {
		return nil, ErrNotInLobby
	}
	if r.area == nil {
		return nil, fmt.Errorf("%w: game area is not set", ErrStartPrecondition)
	}
	if !game.AllRolesSelected(r.playerList()) {
		return nil, fmt.Errorf("%w: every player must select a role", ErrStartPrecondition)
	}

	r.status = game.StatusInProgress
	r.startedAt = now
	r.reveal = RevealState{NextRevealAt: now.Add(game.RevealInterval)}
	r.bonusAreas = game.GenerateBonusAreas(*r.area, game.DefaultBonusAreaCount, rng)

	slog.Info("game started", "room", r.Code, "players", len(r.players), "bonus_areas", len(r.bonusAreas))
	return r.duration, nil
}

// BonusTrigger describes a bonus area consumed by a location update.
type BonusTrigger struct {
	Area          game.BonusArea
	RevealedUntil time.Time
}

// LocationResult is the outcome of an accepted location update.
type LocationResult struct {
	Player *game.Player
	Bonus  *BonusTrigger
}

// updateLocation records an accepted location, recomputes the out-of-bounds
// flag, appends to movement history and consumes at most one bonus area.
func (r *Room) updateLocation(playerID string, loc game.Location, now time.Time, limiter *RateLimiter) (LocationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return LocationResult{}, ErrPlayerNotFound
	}
	if r.status != game.StatusInProgress {
		return LocationResult{}, ErrNotInProgress
	}
	if limiter != nil && !limiter.Allow(playerID, now) {
		return LocationResult{}, ErrRateLimited
	}

	p.UpdateLocation(loc, r.area, now)
	r.movements[playerID] = append(r.movements[playerID], loc)

	res := LocationResult{}
	if ba, hit := game.FindBonusEntry(p, loc, r.bonusAreas); hit {
		until := now.Add(game.BonusRevealDuration)
		r.bonusReveals[playerID] = until
		r.removeBonusAreaLocked(ba.ID)
		res.Bonus = &BonusTrigger{Area: ba, RevealedUntil: until}
	}
	res.Player = p.Clone()
	return res, nil
}

// CatchResult is the outcome of a valid catch attempt.
type CatchResult struct {
	game.CatchOutcome
	Captor *game.Player
	Target *game.Player
}

// attemptCatch validates and, when in range, applies a capture atomically.
func (r *Room) attemptCatch(captorID, targetID string) (CatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	captor, ok := r.players[captorID]
	if !ok {
		return CatchResult{}, ErrPlayerNotFound
	}
	if r.status != game.StatusInProgress {
		return CatchResult{}, ErrNotInProgress
	}
	if !captor.IsPursuer() {
		return CatchResult{}, game.ErrNotPursuer
	}
	target, ok := r.players[targetID]
	if !ok {
		return CatchResult{}, ErrTargetNotFound
	}

	outcome, err := game.CheckCatch(captor, target)
	if err != nil {
		return CatchResult{}, err
	}
	if outcome.Captured {
		target.Capture()
	}
	return CatchResult{
		CatchOutcome: outcome,
		Captor:       captor.Clone(),
		Target:       target.Clone(),
	}, nil
}

func (r *Room) capture(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return false
	}
	p.Capture()
	return true
}

func (r *Room) removeBonusArea(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeBonusAreaLocked(id)
}

// removeBonusAreaLocked deletes a bonus area. Caller must hold r.mu.
func (r *Room) removeBonusAreaLocked(id string) bool {
	for i, ba := range r.bonusAreas {
		if ba.ID == id {
			r.bonusAreas = append(r.bonusAreas[:i], r.bonusAreas[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) setRevealState(s RevealState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reveal = s
}

// tickReveal fires a reveal if the room is in progress and its deadline has
// passed. The snapshot holds the evaders' positions at now.
func (r *Room) tickReveal(now time.Time) (RevealUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.status != game.StatusInProgress {
		return RevealUpdate{}, false
	}
	if r.reveal.NextRevealAt.IsZero() || now.Before(r.reveal.NextRevealAt) {
		return RevealUpdate{}, false
	}

	snapshot := make([]*game.Player, 0)
	for _, p := range r.playerList() {
		if p.IsEvader() && !p.IsCaptured {
			snapshot = append(snapshot, p.Clone())
		}
	}

	r.reveal = RevealState{
		IsRevealing:  true,
		NextRevealAt: now.Add(game.RevealInterval),
	}
	r.revealed = snapshot

	return RevealUpdate{
		RevealStatePayload: r.reveal.payload(),
		RevealedEvaders:    snapshot,
	}, true
}

// finish ends an in-progress game and assembles its summary. It is a no-op
// returning false unless the room is IN_PROGRESS. With onlyIfAllCaptured the
// game only ends when every evader is captured.
func (r *Room) finish(reason game.EndReason, now time.Time, onlyIfAllCaptured bool) (*GameSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != game.StatusInProgress {
		return nil, false
	}
	players := r.playerList()
	if onlyIfAllCaptured && !game.AllEvadersCaptured(players) {
		return nil, false
	}

	r.status = game.StatusEnded
	r.endedAt = now

	pursuers, evaders, captured := game.CountRoles(players)
	movements := make([]PlayerMovement, 0, len(players))
	for _, p := range players {
		path := r.movements[p.ID]
		if !p.Role.IsSet() || len(path) == 0 {
			continue
		}
		movements = append(movements, PlayerMovement{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Role:       p.Role,
			Path:       append([]game.Location(nil), path...),
		})
	}

	return &GameSummary{
		Code:           r.Code,
		Reason:         reason,
		PursuerCount:   pursuers,
		EvaderCount:    evaders,
		CapturedCount:  captured,
		Timestamp:      now.UnixMilli(),
		Movements:      movements,
		GameDurationMs: now.Sub(r.startedAt).Milliseconds(),
		StartedAt:      r.startedAt,
		EndedAt:        now,
	}, true
}

func (r *Room) markClosed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// playerList returns players in join order. Caller must hold r.mu.
func (r *Room) playerList() []*game.Player {
	players := make([]*game.Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id])
	}
	return players
}

// Snapshot returns the room state for broadcasting.
func (r *Room) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]*game.Player, 0, len(r.order))
	for _, p := range r.playerList() {
		players = append(players, p.Clone())
	}

	var area *game.Area
	if r.area != nil {
		a := *r.area
		area = &a
	}

	var durationMs *int64
	if r.duration != nil {
		ms := r.duration.Milliseconds()
		durationMs = &ms
	}

	return State{
		Code:           r.Code,
		HostID:         r.hostID,
		Status:         r.status,
		Area:           area,
		Players:        players,
		StartedAt:      unixMilli(r.startedAt),
		GameDurationMs: durationMs,
		RevealState:    r.reveal.payload(),
		BonusAreas:     append([]game.BonusArea{}, r.bonusAreas...),
	}
}

// Summary returns a listing entry for the room.
func (r *Room) Summary() RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomSummary{
		Code:        r.Code,
		Status:      r.status,
		PlayerCount: len(r.players),
		HasArea:     r.area != nil,
		CreatedAt:   r.createdAt.UnixMilli(),
	}
}

// Status returns the room status.
func (r *Room) Status() game.RoomStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// HostID returns the current host's player ID.
func (r *Room) HostID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID
}

// Player returns a copy of a player.
func (r *Room) Player(playerID string) (*game.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[playerID]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// PlayerCount returns the number of players.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// IsEmpty returns true if the room has no players.
func (r *Room) IsEmpty() bool {
	return r.PlayerCount() == 0
}

// Movements returns a copy of a player's accepted path.
func (r *Room) Movements(playerID string) []game.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]game.Location(nil), r.movements[playerID]...)
}

// RevealedEvaders returns the last reveal snapshot.
func (r *Room) RevealedEvaders() []*game.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*game.Player(nil), r.revealed...)
}

// BonusRevealedUntil returns when a player's bonus reveal expires.
func (r *Room) BonusRevealedUntil(playerID string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bonusReveals[playerID]
	return t, ok
}

// BroadcastMessage sends a message to all players in the room.
func (r *Room) BroadcastMessage(msg ws.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, client := range r.clients {
		client.SendMessage(msg)
	}
}

// Broadcast encodes payload as msgType and sends it to all players.
func (r *Room) Broadcast(msgType string, payload any) {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		slog.Error("failed to encode broadcast", "room", r.Code, "type", msgType, "error", err)
		return
	}
	r.BroadcastMessage(msg)
}

// BroadcastState sends the current room snapshot to all players.
func (r *Room) BroadcastState() {
	r.Broadcast(ws.TypeRoomState, r.Snapshot())
}

// SendToPlayer sends a message to a specific player.
func (r *Room) SendToPlayer(playerID string, msg ws.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.clients[playerID]; ok {
		client.SendMessage(msg)
	}
}
