package services

import "github.com/pitchside/efootball-arena/models"

// Actor is the verified caller identity the routing layer hands to every
// operation. Administrative operations check the role explicitly; nothing in
// the core ever assumes an unauthenticated caller is an admin.
type Actor struct {
	PlayerID int
	Role     models.PlayerRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// systemActor marks internal invocations (auto-verification, capacity
// triggered fixture generation). It is deliberately unexported: external
// callers can only act as themselves.
var systemActor = Actor{PlayerID: 0, Role: models.RoleAdmin}

func (a Actor) isSystem() bool {
	return a.PlayerID == 0 && a.Role == models.RoleAdmin
}

// Notifier pushes domain events to connected clients. The websocket hub
// implements it; services treat a nil notifier as a no-op.
type Notifier interface {
	Notify(room string, eventType string, payload interface{})
}
