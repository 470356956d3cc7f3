package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// KnockoutGenerator produces the first elimination round. Later rounds are
// created by the progression driver as winners become known, so placeholder
// matches are never persisted.
type KnockoutGenerator struct{}

func NewKnockoutGenerator() Generator {
	return &KnockoutGenerator{}
}

func (g *KnockoutGenerator) Name() string {
	return "Knockout"
}

func (g *KnockoutGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Fixture, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, fmt.Errorf("knockout: not enough participants (found %d, min 2 required)", n)
	}

	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	entrants := shuffled(params.Participants, rng)
	roundName := KnockoutRoundName(n)

	fixtures := make([]*Fixture, 0, n/2+1)
	order := 0

	// An odd bracket hands one randomly chosen player a bye. The shuffle
	// already randomized positions, so taking the last entrant is an
	// unbiased pick.
	if n%2 == 1 {
		bye := entrants[n-1]
		entrants = entrants[:n-1]
		order++
		pid := bye.PlayerID
		fixtures = append(fixtures, &Fixture{
			Round:        roundName,
			RoundOrder:   1,
			OrderInRound: order,
			Player1ID:    &pid,
			IsBye:        true,
			ByePlayerID:  &pid,
		})
	}

	for i := 0; i < len(entrants); i += 2 {
		p1 := entrants[i].PlayerID
		p2 := entrants[i+1].PlayerID
		order++
		fixtures = append(fixtures, &Fixture{
			Round:        roundName,
			RoundOrder:   1,
			OrderInRound: order,
			Player1ID:    &p1,
			Player2ID:    &p2,
		})
	}

	return fixtures, nil
}

// PairWinners builds the next elimination round from the previous round's
// winners. The progression driver calls this after every completed round.
// Mirrors first-round generation: an odd winner count produces one random bye.
func PairWinners(winners []int, rng *rand.Rand) []*Fixture {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	pool := make([]int, len(winners))
	copy(pool, winners)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	roundName := KnockoutRoundName(len(pool))
	fixtures := make([]*Fixture, 0, len(pool)/2+1)
	order := 0

	if len(pool)%2 == 1 {
		bye := pool[len(pool)-1]
		pool = pool[:len(pool)-1]
		order++
		fixtures = append(fixtures, &Fixture{
			Round:        roundName,
			OrderInRound: order,
			Player1ID:    &bye,
			IsBye:        true,
			ByePlayerID:  &bye,
		})
	}

	for i := 0; i < len(pool); i += 2 {
		p1, p2 := pool[i], pool[i+1]
		order++
		fixtures = append(fixtures, &Fixture{
			Round:        roundName,
			OrderInRound: order,
			Player1ID:    &p1,
			Player2ID:    &p2,
		})
	}

	return fixtures
}
