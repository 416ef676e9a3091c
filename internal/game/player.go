package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ugaemi/geohunt-server/internal/geo"
)

type Role int

const (
	RoleNone Role = iota
	RolePursuer
	RoleEvader
)

func (r Role) String() string {
	switch r {
	case RolePursuer:
		return "pursuer"
	case RoleEvader:
		return "evader"
	default:
		return "none"
	}
}

// IsSet reports whether a role has been selected.
func (r Role) IsSet() bool {
	return r == RolePursuer || r == RoleEvader
}

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "pursuer":
		return RolePursuer, nil
	case "evader":
		return RoleEvader, nil
	default:
		return RoleNone, fmt.Errorf("invalid role %q", s)
	}
}

// MarshalJSON serializes Role as a string, or null when no role is selected.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON deserializes Role from a string or null.
func (r *Role) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = RoleNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Location is a device-reported position. Timestamp is the device clock in
// Unix milliseconds and is not trusted for ordering.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// Point returns the coordinate part of the location.
func (l Location) Point() geo.Point {
	return geo.Point{Latitude: l.Latitude, Longitude: l.Longitude}
}

type Player struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Role               Role      `json:"role"`
	Location           *Location `json:"location"`
	IsHost             bool      `json:"is_host"`
	IsCaptured         bool      `json:"is_captured"`
	IsOutOfBounds      bool      `json:"is_out_of_bounds"`
	LastLocationUpdate time.Time `json:"-"`
}

func NewPlayer(name string) *Player {
	return &Player{
		ID:   uuid.New().String(),
		Name: name,
		Role: RoleNone,
	}
}

func (p *Player) SetRole(role Role) {
	p.Role = role
}

// Capture marks the player captured. Capture is irreversible.
func (p *Player) Capture() {
	p.IsCaptured = true
}

// UpdateLocation stores loc and recomputes the out-of-bounds flag against
// area. A nil area leaves the player in bounds.
func (p *Player) UpdateLocation(loc Location, area *Area, now time.Time) {
	p.Location = &loc
	p.LastLocationUpdate = now
	p.IsOutOfBounds = area != nil && IsOutOfBounds(loc.Point(), *area)
}

func (p *Player) IsPursuer() bool {
	return p.Role == RolePursuer
}

func (p *Player) IsEvader() bool {
	return p.Role == RoleEvader
}

// Clone returns a copy that is safe to read without holding the room lock.
func (p *Player) Clone() *Player {
	c := *p
	if p.Location != nil {
		loc := *p.Location
		c.Location = &loc
	}
	return &c
}
