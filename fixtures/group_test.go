package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupPartitioning(t *testing.T) {
	cases := []struct {
		n          int
		wantGroups int
	}{
		{4, 1},
		{5, 2},
		{8, 2},
		{9, 3},
		{12, 3},
		{16, 4},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d", tc.n), func(t *testing.T) {
			gen := NewGroupGenerator()
			fx, err := gen.Generate(context.Background(), GenerateParams{
				Participants: testParticipants(tc.n),
				Rand:         rand.New(rand.NewSource(1)),
			})
			require.NoError(t, err)

			groupMembers := make(map[string]map[int]bool)
			for _, f := range fx {
				if groupMembers[f.Round] == nil {
					groupMembers[f.Round] = make(map[int]bool)
				}
				groupMembers[f.Round][*f.Player1ID] = true
				groupMembers[f.Round][*f.Player2ID] = true
			}
			require.Len(t, groupMembers, tc.wantGroups)

			total := 0
			for name, members := range groupMembers {
				require.LessOrEqual(t, len(members), maxGroupSize, "group %s within size cap", name)

				// All-pairs round robin inside the group.
				count := 0
				for _, f := range fx {
					if f.Round == name {
						count++
					}
				}
				m := len(members)
				require.Equal(t, m*(m-1)/2, count, "group %s match count", name)
				total += len(members)
			}
			require.Equal(t, tc.n, total, "every participant assigned to exactly one group")
		})
	}
}

func TestGroupMatchNumberingIsShuffled(t *testing.T) {
	gen := NewGroupGenerator()
	fx, err := gen.Generate(context.Background(), GenerateParams{
		Participants: testParticipants(8),
		Rand:         rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)

	for i, f := range fx {
		require.Equal(t, i+1, f.OrderInRound)
	}

	// With a shuffle applied the two groups' matches should interleave.
	sameGroupPrefix := true
	for i := 1; i < len(fx)/2; i++ {
		if fx[i].Round != fx[0].Round {
			sameGroupPrefix = false
			break
		}
	}
	require.False(t, sameGroupPrefix, "matches should not be grouped in draw order")
}

func TestGroupNames(t *testing.T) {
	require.Equal(t, "Group A", GroupName(0))
	require.Equal(t, "Group B", GroupName(1))
	require.Equal(t, "Group Z", GroupName(25))
}
