// Package game implements the authoritative state engine for a Dutch game:
// the in-memory aggregate, the command pipeline, and the per-player state
// projection. All mutation is serialized under a single mutex; the transport
// and gateway layers stay outside through callback fields.
package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/a-Leong/dutch.cards/internal/cache"
	"github.com/a-Leong/dutch.cards/internal/database"
	"github.com/a-Leong/dutch.cards/internal/models"
)

// Phase is the coarse game-lifecycle stage. Transitions are one-directional
// within a game lifetime: pregame → ingame.
type Phase string

const (
	PhasePregame Phase = "pregame"
	PhaseIngame  Phase = "ingame"
)

// HandSize is the number of cards dealt face-down to each seated player.
const HandSize = 4

// CommandRecord is one accepted {player, command} pair in the append-only log.
type CommandRecord struct {
	Player  uuid.UUID      `json:"player"`
	Command models.Command `json:"command"`
}

// State is the single authoritative aggregate. The top of each pile is the
// last element. CardMap resolves any dealt card identifier back to its full
// payload and is rebuilt wholesale on every game start.
type State struct {
	Phase        Phase
	ActivePlayer uuid.UUID
	Players      map[uuid.UUID]*models.Player
	DrawPile     []*models.Card
	DiscardPile  []*models.Card
	CardMap      map[uuid.UUID]*models.Card
	Commands     []CommandRecord
}

// Rejection is the structured failure sent to exactly one player when their
// command is refused. No other player observes anything.
type Rejection struct {
	ID        string           `json:"id"`
	CommandID models.CommandID `json:"commandId"`
	Reason    string           `json:"reason"`
}

// DutchGame owns the State and drives the command pipeline. The gateway is
// attached through BroadcastFn and RejectFn so transports and tests can
// substitute their own delivery.
type DutchGame struct {
	ID uuid.UUID

	mu           sync.Mutex
	state        *State
	rng          *rand.Rand
	commandIndex int

	log *logrus.Logger

	// BroadcastFn delivers one tailored view per known player after every
	// accepted command. Delivery is fire-and-forget; the pipeline never
	// blocks on confirmation.
	BroadcastFn func(views map[uuid.UUID]*ClientState)

	// RejectFn delivers a rejection to the originating player only.
	RejectFn func(player uuid.UUID, rej Rejection)
}

// New creates a game with a time-seeded shuffle source.
func New(log *logrus.Logger) *DutchGame {
	return NewWithSeed(log, time.Now().UnixNano())
}

// NewWithSeed creates a game with a deterministic shuffle source, used by
// tests that need reproducible deals.
func NewWithSeed(log *logrus.Logger, seed int64) *DutchGame {
	if log == nil {
		log = logrus.New()
	}
	return &DutchGame{
		ID:  uuid.New(),
		rng: rand.New(rand.NewSource(seed)),
		log: log,
		state: &State{
			Phase:   PhasePregame,
			Players: make(map[uuid.UUID]*models.Player),
			CardMap: make(map[uuid.UUID]*models.Card),
		},
	}
}

// HandleCommand runs the full pipeline for one inbound command: validate,
// mutate, log, broadcast. Commands are processed to completion one at a
// time; a failure aborts before any mutation and only the originator hears
// about it.
func (g *DutchGame) HandleCommand(player uuid.UUID, cmd models.Command) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.apply(player, cmd); err != nil {
		g.log.WithFields(logrus.Fields{
			"game":    g.ID,
			"player":  player,
			"command": cmd.ID,
		}).Warnf("command rejected: %v", err)
		g.sendReject(player, Rejection{
			ID:        "reject",
			CommandID: cmd.ID,
			Reason:    err.Error(),
		})
		return
	}

	g.state.Commands = append(g.state.Commands, CommandRecord{Player: player, Command: cmd})
	g.publishCommand(player, cmd)
	g.broadcast()
}

// Snapshot returns a read-only copy of the aggregate for inspection. Hands
// and piles are shallow-copied; cards themselves are not duplicated.
func (g *DutchGame) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := State{
		Phase:        g.state.Phase,
		ActivePlayer: g.state.ActivePlayer,
		Players:      make(map[uuid.UUID]*models.Player, len(g.state.Players)),
		DrawPile:     append([]*models.Card(nil), g.state.DrawPile...),
		DiscardPile:  append([]*models.Card(nil), g.state.DiscardPile...),
		CardMap:      make(map[uuid.UUID]*models.Card, len(g.state.CardMap)),
		Commands:     append([]CommandRecord(nil), g.state.Commands...),
	}
	for uid, p := range g.state.Players {
		cp := *p
		cp.Hand = append([]*models.Card(nil), p.Hand...)
		s.Players[uid] = &cp
	}
	for id, c := range g.state.CardMap {
		s.CardMap[id] = c
	}
	return s
}

// broadcast recomputes a projection per known player and hands the batch to
// the gateway. Projection is a pure read of the now-stable state, so the
// gateway is free to deliver the views concurrently.
func (g *DutchGame) broadcast() {
	if g.BroadcastFn == nil {
		g.log.WithField("game", g.ID).Warn("BroadcastFn is nil, dropping update")
		return
	}
	views := make(map[uuid.UUID]*ClientState, len(g.state.Players))
	for uid := range g.state.Players {
		views[uid] = Project(g.state, uid)
	}
	g.BroadcastFn(views)
}

func (g *DutchGame) sendReject(player uuid.UUID, rej Rejection) {
	if g.RejectFn == nil {
		g.log.WithField("game", g.ID).Warn("RejectFn is nil, dropping rejection")
		return
	}
	g.RejectFn(player, rej)
}

// publishCommand forwards the accepted command to the historian. Best effort
// and asynchronous; the in-memory log is the durable record.
func (g *DutchGame) publishCommand(player uuid.UUID, cmd models.Command) {
	g.commandIndex++
	rec := cache.CommandRecord{
		GameID:    g.ID,
		Index:     g.commandIndex,
		PlayerID:  player,
		CommandID: string(cmd.ID),
		Timestamp: time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishCommand(ctx, rec); err != nil {
			g.log.WithField("game", g.ID).Errorf("failed publishing command %d (%s): %v",
				rec.Index, rec.CommandID, err)
		}
	}()
}

type dealSnapshot struct {
	DrawPileSize int                      `json:"drawPileSize"`
	DiscardTop   *models.Card             `json:"discardTop"`
	Hands        map[string][]models.Card `json:"hands"`
}

// buildDealSnapshot copies card values out of live state, so the snapshot can
// be marshaled after the mutex is released without racing later commands.
func (g *DutchGame) buildDealSnapshot() dealSnapshot {
	snap := dealSnapshot{
		DrawPileSize: len(g.state.DrawPile),
		Hands:        make(map[string][]models.Card, len(g.state.Players)),
	}
	if n := len(g.state.DiscardPile); n > 0 {
		top := *g.state.DiscardPile[n-1]
		snap.DiscardTop = &top
	}
	for uid, p := range g.state.Players {
		hand := make([]models.Card, len(p.Hand))
		for i, c := range p.Hand {
			hand[i] = *c
		}
		snap.Hands[uid.String()] = hand
	}
	return snap
}

// persistDealSnapshot records the completed deal for audit. Best effort.
func (g *DutchGame) persistDealSnapshot() {
	snap := g.buildDealSnapshot()
	gameID := g.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.SaveDealSnapshot(ctx, gameID, snap); err != nil {
			logrus.WithField("game", gameID).Errorf("failed saving deal snapshot: %v", err)
		}
	}()
}
