package game

import (
	"sort"

	"github.com/google/uuid"

	"github.com/a-Leong/dutch.cards/internal/models"
)

// ClientCard is a card as one viewer is allowed to see it. A face-down card
// carries only its identifier; a face-up card carries the full payload.
type ClientCard struct {
	ID     uuid.UUID          `json:"id"`
	Facing models.Orientation `json:"facing"`
	Rank   string             `json:"rank,omitempty"`
	Suit   string             `json:"suit,omitempty"`
	Value  int                `json:"value,omitempty"`
}

// ClientPlayer mirrors one seated player in a projected view.
type ClientPlayer struct {
	UID      uuid.UUID           `json:"uid"`
	Position int                 `json:"position"`
	Status   models.PlayerStatus `json:"status"`
	Online   bool                `json:"isOnline"`
	Hand     []ClientCard        `json:"hand"`
}

// PileView exposes a pile's size and, at most, its top card.
type PileView struct {
	Count int         `json:"count"`
	Top   *ClientCard `json:"top,omitempty"`
}

// ClientState is the sanitized per-viewer snapshot broadcast after every
// accepted command.
type ClientState struct {
	Phase        Phase          `json:"phase"`
	ActivePlayer uuid.UUID      `json:"activePlayerUid,omitempty"`
	Players      []ClientPlayer `json:"players"`
	DrawPile     PileView       `json:"drawPile"`
	DiscardPile  PileView       `json:"discardPile"`
	ActionQueue  []string       `json:"actionQueue"`
}

// Project maps the authoritative state to what viewer is allowed to see:
// the discard pile shows only its top card face-up, the draw pile shows only
// its top card forced face-down, and every hand is rendered by the stored
// orientation of each card. Hands are treated identically for all viewers,
// the viewer's own included; in Dutch you do not know your own face-down
// cards. Pure: no side effects, tolerates zero players and empty piles.
func Project(s *State, viewer uuid.UUID) *ClientState {
	_ = viewer // hands are currently viewer-independent; see above

	view := &ClientState{
		Phase:        s.Phase,
		ActivePlayer: s.ActivePlayer,
		Players:      make([]ClientPlayer, 0, len(s.Players)),
		DrawPile:     PileView{Count: len(s.DrawPile)},
		DiscardPile:  PileView{Count: len(s.DiscardPile)},
		ActionQueue:  []string{},
	}

	if n := len(s.DiscardPile); n > 0 {
		// Discard identity is public once placed.
		view.DiscardPile.Top = revealCard(s, s.DiscardPile[n-1].ID)
	}
	if n := len(s.DrawPile); n > 0 {
		// Never expose draw pile contents before they are drawn.
		view.DrawPile.Top = &ClientCard{
			ID:     s.DrawPile[n-1].ID,
			Facing: models.FaceDown,
		}
	}

	// Emit players in table order.
	players := make([]*models.Player, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Position < players[j].Position
	})
	for _, p := range players {
		cp := ClientPlayer{
			UID:      p.UID,
			Position: p.Position,
			Status:   p.Status,
			Online:   p.Online,
			Hand:     make([]ClientCard, 0, len(p.Hand)),
		}
		for _, c := range p.Hand {
			if c.Facing == models.FaceUp {
				cp.Hand = append(cp.Hand, *revealCard(s, c.ID))
			} else {
				cp.Hand = append(cp.Hand, ClientCard{ID: c.ID, Facing: models.FaceDown})
			}
		}
		view.Players = append(view.Players, cp)
	}

	return view
}

// revealCard resolves a card identifier to its full payload via the card map.
func revealCard(s *State, id uuid.UUID) *ClientCard {
	c, ok := s.CardMap[id]
	if !ok {
		return &ClientCard{ID: id, Facing: models.FaceDown}
	}
	return &ClientCard{
		ID:     c.ID,
		Facing: models.FaceUp,
		Rank:   c.Rank,
		Suit:   c.Suit,
		Value:  c.Value,
	}
}
