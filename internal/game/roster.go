package game

import (
	"sort"

	"github.com/google/uuid"

	"github.com/a-Leong/dutch.cards/internal/models"
)

// addPlayer seats a new player at the next position with an empty hand.
// Callers guard against duplicate uids; adding an existing uid is a no-op.
func (g *DutchGame) addPlayer(uid uuid.UUID) {
	if _, ok := g.state.Players[uid]; ok {
		return
	}
	g.state.Players[uid] = &models.Player{
		UID:      uid,
		Position: len(g.state.Players),
		Status:   models.StatusWaiting,
		Hand:     []*models.Card{},
		Online:   true,
	}
}

// removePlayer unseats a player and renumbers the remaining positions to a
// dense 0-based sequence, preserving relative order.
func (g *DutchGame) removePlayer(uid uuid.UUID) {
	if _, ok := g.state.Players[uid]; !ok {
		return
	}
	delete(g.state.Players, uid)
	for i, p := range g.orderedPlayers() {
		p.Position = i
	}
}

// orderedPlayers lists the seated players by table position. The listing is
// recomputed on every call rather than cached, so it can never go stale
// against the players map.
func (g *DutchGame) orderedPlayers() []*models.Player {
	players := make([]*models.Player, 0, len(g.state.Players))
	for _, p := range g.state.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Position < players[j].Position
	})
	return players
}
