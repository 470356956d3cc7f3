package fixtures

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeagueEveryPairMeetsOnce(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 7, 8, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			gen := NewLeagueGenerator()
			fx, err := gen.Generate(context.Background(), GenerateParams{
				Participants: testParticipants(n),
			})
			require.NoError(t, err)
			require.Len(t, fx, n*(n-1)/2)

			pairs := make(map[[2]int]int)
			for _, f := range fx {
				require.NotNil(t, f.Player1ID)
				require.NotNil(t, f.Player2ID)
				a, b := *f.Player1ID, *f.Player2ID
				if a > b {
					a, b = b, a
				}
				pairs[[2]int{a, b}]++
			}
			require.Len(t, pairs, n*(n-1)/2)
			for pair, count := range pairs {
				require.Equal(t, 1, count, "pair %v plays once", pair)
			}
		})
	}
}

func TestLeagueRoundStructure(t *testing.T) {
	// Even field: N-1 rounds with N/2 matches each.
	gen := NewLeagueGenerator()
	fx, err := gen.Generate(context.Background(), GenerateParams{
		Participants: testParticipants(6),
	})
	require.NoError(t, err)

	perRound := make(map[string]int)
	for _, f := range fx {
		perRound[f.Round]++
	}
	require.Len(t, perRound, 5)
	for round, count := range perRound {
		require.Equal(t, 3, count, "round %s", round)
	}
}

func TestLeagueOddFieldSitsOneOutPerRound(t *testing.T) {
	gen := NewLeagueGenerator()
	fx, err := gen.Generate(context.Background(), GenerateParams{
		Participants: testParticipants(5),
	})
	require.NoError(t, err)
	require.Len(t, fx, 10)

	perRound := make(map[string]int)
	for _, f := range fx {
		perRound[f.Round]++
	}
	for round, count := range perRound {
		require.Equal(t, 2, count, "round %s has floor(5/2) matches", round)
	}
}
