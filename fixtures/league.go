package fixtures

import (
	"context"
	"fmt"
)

// LeagueGenerator produces a single round-robin using the circle method: one
// participant stays fixed while the rest rotate, so every pair meets exactly
// once. An odd field gets a rotating sit-out via a ghost slot.
type LeagueGenerator struct{}

func NewLeagueGenerator() Generator {
	return &LeagueGenerator{}
}

func (g *LeagueGenerator) Name() string {
	return "League"
}

func (g *LeagueGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Fixture, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, fmt.Errorf("league: not enough participants (found %d, min 2 required)", n)
	}

	// Slot values are player ids; -1 marks the ghost used to even out an
	// odd field. A pairing against the ghost is that player's rest day and
	// produces no match.
	slots := make([]int, 0, n+1)
	for _, p := range params.Participants {
		slots = append(slots, p.PlayerID)
	}
	if len(slots)%2 == 1 {
		slots = append(slots, -1)
	}

	size := len(slots)
	rounds := size - 1

	fixtures := make([]*Fixture, 0, n*(n-1)/2)
	for r := 0; r < rounds; r++ {
		order := 0
		for i := 0; i < size/2; i++ {
			a := slots[i]
			b := slots[size-1-i]
			if a == -1 || b == -1 {
				continue
			}
			order++
			p1, p2 := a, b
			fixtures = append(fixtures, &Fixture{
				Round:        fmt.Sprintf("Round %d", r+1),
				RoundOrder:   r + 1,
				OrderInRound: order,
				Player1ID:    &p1,
				Player2ID:    &p2,
			})
		}

		// Rotate everything but the first slot.
		last := slots[size-1]
		copy(slots[2:], slots[1:size-1])
		slots[1] = last
	}

	return fixtures, nil
}
