package game

// CountRoles returns the number of pursuers, evaders and captured evaders.
func CountRoles(players []*Player) (pursuers, evaders, captured int) {
	for _, p := range players {
		switch p.Role {
		case RolePursuer:
			pursuers++
		case RoleEvader:
			evaders++
			if p.IsCaptured {
				captured++
			}
		}
	}
	return pursuers, evaders, captured
}

// AllEvadersCaptured returns true if there is at least one evader and every
// evader is captured.
func AllEvadersCaptured(players []*Player) bool {
	_, evaders, captured := CountRoles(players)
	return evaders > 0 && evaders == captured
}

// AllRolesSelected returns true if every player holds a role.
func AllRolesSelected(players []*Player) bool {
	for _, p := range players {
		if !p.Role.IsSet() {
			return false
		}
	}
	return true
}
