package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/a-Leong/dutch.cards/internal/deck"
	"github.com/a-Leong/dutch.cards/internal/models"
)

// rejectError is a command validation failure. Handlers return it before
// touching state, so a rejected command never leaves a partial mutation.
type rejectError struct {
	reason string
}

func (e *rejectError) Error() string { return e.reason }

func rejectf(format string, args ...any) error {
	return &rejectError{reason: fmt.Sprintf(format, args...)}
}

// apply validates cmd against the current phase and player state and, on
// success, performs the full mutation for it. Any error return means state
// is untouched.
func (g *DutchGame) apply(player uuid.UUID, cmd models.Command) error {
	switch cmd.ID {
	case models.CmdConnectToRoom:
		return g.applyConnect(player)
	case models.CmdDisconnectFromRoom:
		return g.applyDisconnect(player)
	case models.CmdToggleReady:
		return g.applyToggleReady(player)
	default:
		if cmd.ID.Stub() {
			// Recognized but unimplemented rules: accepted as a no-op so the
			// log append and broadcast still happen.
			return nil
		}
		return rejectf("unknown command %q", cmd.ID)
	}
}

// applyConnect seats an unknown player during pregame, or marks a known
// player back online. An unknown player connecting mid-game is accepted as a
// no-op; there is no observer seat.
func (g *DutchGame) applyConnect(player uuid.UUID) error {
	if p, ok := g.state.Players[player]; ok {
		p.Online = true
		return nil
	}
	if g.state.Phase != PhasePregame {
		return nil
	}
	g.addPlayer(player)
	g.log.WithFields(logrus.Fields{"game": g.ID, "player": player}).Info("player seated")
	return nil
}

// applyDisconnect frees the seat during pregame, or marks the player offline
// once the game has started so their seat and hand survive a reconnect.
func (g *DutchGame) applyDisconnect(player uuid.UUID) error {
	p, ok := g.state.Players[player]
	if !ok {
		return rejectf("unknown player")
	}
	if g.state.Phase == PhaseIngame {
		p.Online = false
		return nil
	}
	g.removePlayer(player)
	g.log.WithFields(logrus.Fields{"game": g.ID, "player": player}).Info("player unseated")
	return nil
}

// applyToggleReady flips the issuing player between waiting and ready. When
// the flip would make every seated player ready, the start-game procedure
// runs as part of the same command; its preconditions are validated first so
// a refused start leaves the toggle unapplied too.
func (g *DutchGame) applyToggleReady(player uuid.UUID) error {
	p, ok := g.state.Players[player]
	if !ok {
		return rejectf("unknown player")
	}
	if g.state.Phase == PhaseIngame {
		return rejectf("game has already started")
	}

	wouldStart := p.Status == models.StatusWaiting && g.allOthersReady(player)
	if wouldStart {
		if err := g.validateStart(); err != nil {
			return err
		}
	}

	if p.Status == models.StatusReady {
		p.Status = models.StatusWaiting
	} else {
		p.Status = models.StatusReady
	}

	if wouldStart {
		g.startGame(uuid.Nil)
	}
	return nil
}

// allOthersReady reports whether every seated player except uid is ready.
func (g *DutchGame) allOthersReady(uid uuid.UUID) bool {
	for _, p := range g.state.Players {
		if p.UID == uid {
			continue
		}
		if p.Status != models.StatusReady {
			return false
		}
	}
	return true
}

// validateStart checks the start-game preconditions without mutating. The
// overdraw case is a configuration defect (deck too small for the seated
// player count) but is surfaced the same way as any validation failure.
func (g *DutchGame) validateStart() error {
	if len(g.state.Players) < 2 {
		return rejectf("need at least two players to start")
	}
	if required := len(g.state.Players)*HandSize + 1; deck.StandardSize < required {
		return rejectf("overdraw from draw pile: deck of %d cannot deal %d cards",
			deck.StandardSize, required)
	}
	return nil
}

// startGame transitions pregame → ingame: installs a fresh shuffled deck and
// card map, picks the active player (starting if given, else random), deals
// HandSize cards face-down to each seated player in round-robin order, and
// seeds the discard pile with one face-up card. Preconditions were validated
// by validateStart, so the deal cannot run dry.
func (g *DutchGame) startGame(starting uuid.UUID) {
	cards, lookup := deck.New(g.rng)
	g.state.Phase = PhaseIngame
	g.state.DrawPile = cards
	g.state.DiscardPile = []*models.Card{}
	g.state.CardMap = lookup

	seated := g.orderedPlayers()
	if _, ok := g.state.Players[starting]; ok {
		g.state.ActivePlayer = starting
	} else {
		g.state.ActivePlayer = seated[g.rng.Intn(len(seated))].UID
	}

	// One card per player per round, so round 2 never begins before every
	// player has their first card.
	for _, p := range seated {
		p.Hand = []*models.Card{}
	}
	for round := 0; round < HandSize; round++ {
		for _, p := range seated {
			p.Hand = append(p.Hand, g.drawTop())
		}
	}

	seed := g.drawTop()
	seed.Facing = models.FaceUp
	g.state.DiscardPile = append(g.state.DiscardPile, seed)

	g.log.WithFields(logrus.Fields{
		"game":    g.ID,
		"players": len(seated),
		"active":  g.state.ActivePlayer,
		"draw":    len(g.state.DrawPile),
	}).Info("game started")

	g.persistDealSnapshot()
}

// drawTop pops the top card of the draw pile. Callers validate pile depth.
func (g *DutchGame) drawTop() *models.Card {
	n := len(g.state.DrawPile)
	c := g.state.DrawPile[n-1]
	g.state.DrawPile = g.state.DrawPile[:n-1]
	return c
}
