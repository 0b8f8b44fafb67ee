// Package models defines the shared data types for the dutch.cards server:
// cards, players, users, and the wire-level command vocabulary.
package models

import "github.com/google/uuid"

// Orientation describes whether a card's payload is currently visible.
type Orientation string

const (
	FaceUp   Orientation = "up"
	FaceDown Orientation = "down"
)

// Card is a single playing card. The ID is unique within one dealt deck and
// is the only field safe to reveal regardless of orientation.
type Card struct {
	ID     uuid.UUID   `json:"id"`
	Rank   string      `json:"rank"`
	Suit   string      `json:"suit"`
	Value  int         `json:"value"`
	Facing Orientation `json:"facing"`
}

// PlayerStatus is the pre-game ready state of a seated player.
// It carries no meaning once the game has started.
type PlayerStatus string

const (
	StatusWaiting PlayerStatus = "waiting"
	StatusReady   PlayerStatus = "ready"
)

// Player is a seated participant. Position is dense and 0-based; the roster
// renumbers it on every add or remove. Hand order is gameplay-significant.
type Player struct {
	UID      uuid.UUID    `json:"uid"`
	Position int          `json:"position"`
	Status   PlayerStatus `json:"status"`
	Hand     []*Card      `json:"hand"`
	Online   bool         `json:"isOnline"`
}

// User is an authenticated account. Only the ID crosses into the game core;
// credentials stay in the auth/database layers.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
}

// CommandID tags a player command with one of the fixed wire identifiers.
type CommandID string

const (
	CmdConnectToRoom      CommandID = "connect-to-room"
	CmdDisconnectFromRoom CommandID = "disconnect-from-room"
	CmdToggleReady        CommandID = "toggle-ready"
	CmdRestartGame        CommandID = "restart-game"
	CmdCallDutch          CommandID = "call-dutch"
	CmdDrawDiscardPile    CommandID = "draw-discard-pile"
	CmdDrawDrawPile       CommandID = "draw-draw-pile"
	CmdMatchDiscard       CommandID = "match-discard"
	CmdPeek               CommandID = "peek"
	CmdReplaceDiscard     CommandID = "replace-discard"
	CmdSwap               CommandID = "swap"
)

// stubCommands are recognized identifiers whose rules are not implemented
// yet. They are accepted as no-ops: logged and broadcast, never mutating.
var stubCommands = map[CommandID]bool{
	CmdRestartGame:     true,
	CmdCallDutch:       true,
	CmdDrawDiscardPile: true,
	CmdDrawDrawPile:    true,
	CmdMatchDiscard:    true,
	CmdPeek:            true,
	CmdReplaceDiscard:  true,
	CmdSwap:            true,
}

// Known reports whether id belongs to the fixed command vocabulary.
func (id CommandID) Known() bool {
	switch id {
	case CmdConnectToRoom, CmdDisconnectFromRoom, CmdToggleReady:
		return true
	}
	return stubCommands[id]
}

// Stub reports whether id is an accepted no-op extension point.
func (id CommandID) Stub() bool {
	return stubCommands[id]
}

// Command is one parsed player command as delivered by the transport layer.
// The extension fields are carried for the stubbed in-game actions and are
// ignored by the current handlers.
type Command struct {
	ID        CommandID `json:"id"`
	CardID    uuid.UUID `json:"cardId,omitempty"`
	TargetUID uuid.UUID `json:"targetUid,omitempty"`
	HandIndex *int      `json:"handIndex,omitempty"`
}
