// Package deck builds shuffled decks of uniquely identified cards.
package deck

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/a-Leong/dutch.cards/internal/models"
)

// StandardSize is the number of cards in one fresh deck.
const StandardSize = 52

var suits = []string{"hearts", "diamonds", "clubs", "spades"}

var ranks = []struct {
	name  string
	value int
}{
	{"A", 1}, {"2", 2}, {"3", 3}, {"4", 4}, {"5", 5}, {"6", 6}, {"7", 7},
	{"8", 8}, {"9", 9}, {"10", 10}, {"J", 11}, {"Q", 12}, {"K", 13},
}

// New returns a freshly shuffled 52-card deck plus a lookup from card ID to
// card. Every card starts face-down. The function has no side effects; the
// caller installs the result into game state. Shuffling is an unbiased
// Fisher-Yates driven by rng, so draw order is unpredictable from public
// information as long as the seed is.
func New(rng *rand.Rand) ([]*models.Card, map[uuid.UUID]*models.Card) {
	cards := make([]*models.Card, 0, StandardSize)
	lookup := make(map[uuid.UUID]*models.Card, StandardSize)

	for _, suit := range suits {
		for _, rank := range ranks {
			c := &models.Card{
				ID:     uuid.New(),
				Rank:   rank.name,
				Suit:   suit,
				Value:  rank.value,
				Facing: models.FaceDown,
			}
			cards = append(cards, c)
			lookup[c.ID] = c
		}
	}

	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return cards, lookup
}
