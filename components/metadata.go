package components

import "fmt"

var roleNames = [...]string{"boid", "predator"}

var goalNames = [...]string{"none", "seek", "flee", "arrive", "brake"}

// String returns the role's config name.
func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", r)
}

// String returns the goal kind's config name.
func (g GoalKind) String() string {
	if int(g) < len(goalNames) {
		return goalNames[g]
	}
	return fmt.Sprintf("GoalKind(%d)", g)
}

// ParseGoalKind maps a name back to a GoalKind.
func ParseGoalKind(name string) (GoalKind, error) {
	for i, n := range goalNames {
		if n == name {
			return GoalKind(i), nil
		}
	}
	return GoalNone, fmt.Errorf("unknown goal %q", name)
}
