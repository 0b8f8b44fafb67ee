package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-Leong/dutch.cards/internal/models"
)

func TestProjectionHidesHiddenInformation(t *testing.T) {
	g, _, uids := startedGame(t, 2)
	s := g.Snapshot()

	for _, viewer := range uids {
		view := Project(&s, viewer)

		// Draw pile: top card id only, forced face-down.
		require.NotNil(t, view.DrawPile.Top)
		assert.Equal(t, models.FaceDown, view.DrawPile.Top.Facing)
		assert.Empty(t, view.DrawPile.Top.Rank)
		assert.Empty(t, view.DrawPile.Top.Suit)
		assert.Zero(t, view.DrawPile.Top.Value)

		// Discard pile: top card public.
		require.NotNil(t, view.DiscardPile.Top)
		assert.Equal(t, models.FaceUp, view.DiscardPile.Top.Facing)
		assert.NotEmpty(t, view.DiscardPile.Top.Rank)
		assert.NotEmpty(t, view.DiscardPile.Top.Suit)

		// Every hand card is face-down after the deal, the viewer's own
		// included, so no payload may appear anywhere.
		for _, p := range view.Players {
			require.Len(t, p.Hand, HandSize)
			for _, c := range p.Hand {
				assert.Equal(t, models.FaceDown, c.Facing)
				assert.Empty(t, c.Rank, "face-down card payload leaked to %s", viewer)
				assert.Empty(t, c.Suit)
				assert.NotEqual(t, uuid.Nil, c.ID, "identifiers stay visible")
			}
		}
	}
}

func TestProjectionMirrorsTopLevelFields(t *testing.T) {
	g, _, uids := startedGame(t, 3)
	s := g.Snapshot()

	view := Project(&s, uids[0])
	assert.Equal(t, PhaseIngame, view.Phase)
	assert.Equal(t, s.ActivePlayer, view.ActivePlayer)
	assert.NotNil(t, view.ActionQueue)
	assert.Empty(t, view.ActionQueue, "action queue is not wired yet, always empty")

	require.Len(t, view.Players, 3)
	for i, p := range view.Players {
		assert.Equal(t, i, p.Position, "players emitted in table order")
	}

	assert.Equal(t, len(s.DrawPile), view.DrawPile.Count)
	assert.Equal(t, len(s.DiscardPile), view.DiscardPile.Count)
}

func TestProjectionRevealsFaceUpHandCards(t *testing.T) {
	card := &models.Card{
		ID:     uuid.New(),
		Rank:   "Q",
		Suit:   "spades",
		Value:  12,
		Facing: models.FaceUp,
	}
	owner := uuid.New()
	s := &State{
		Phase: PhaseIngame,
		Players: map[uuid.UUID]*models.Player{
			owner: {UID: owner, Position: 0, Hand: []*models.Card{card}, Online: true},
		},
		CardMap: map[uuid.UUID]*models.Card{card.ID: card},
	}

	view := Project(s, owner)
	require.Len(t, view.Players, 1)
	require.Len(t, view.Players[0].Hand, 1)
	got := view.Players[0].Hand[0]
	assert.Equal(t, models.FaceUp, got.Facing)
	assert.Equal(t, "Q", got.Rank)
	assert.Equal(t, "spades", got.Suit)
	assert.Equal(t, 12, got.Value)
}

func TestProjectionIsIdempotent(t *testing.T) {
	g, _, uids := startedGame(t, 2)
	s := g.Snapshot()

	first := Project(&s, uids[0])
	second := Project(&s, uids[0])
	assert.Equal(t, first, second, "re-projecting unchanged state yields an identical view")
}

func TestProjectionToleratesEmptyState(t *testing.T) {
	s := &State{
		Phase:   PhasePregame,
		Players: map[uuid.UUID]*models.Player{},
		CardMap: map[uuid.UUID]*models.Card{},
	}

	view := Project(s, uuid.New())
	assert.Equal(t, PhasePregame, view.Phase)
	assert.Empty(t, view.Players)
	assert.Zero(t, view.DrawPile.Count)
	assert.Nil(t, view.DrawPile.Top)
	assert.Zero(t, view.DiscardPile.Count)
	assert.Nil(t, view.DiscardPile.Top)
}

func TestProjectionForcesDrawTopFaceDown(t *testing.T) {
	// Even if a draw pile card is somehow stored face-up, the projection
	// must not leak it.
	card := &models.Card{
		ID:     uuid.New(),
		Rank:   "A",
		Suit:   "hearts",
		Value:  1,
		Facing: models.FaceUp,
	}
	s := &State{
		Phase:    PhaseIngame,
		Players:  map[uuid.UUID]*models.Player{},
		DrawPile: []*models.Card{card},
		CardMap:  map[uuid.UUID]*models.Card{card.ID: card},
	}

	view := Project(s, uuid.New())
	require.NotNil(t, view.DrawPile.Top)
	assert.Equal(t, models.FaceDown, view.DrawPile.Top.Facing)
	assert.Empty(t, view.DrawPile.Top.Rank)
}
