package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pitchside/efootball-arena/models"
)

// Groups hold at most this many participants.
const maxGroupSize = 4

// GroupGenerator partitions a shuffled field into groups of at most four and
// generates an all-pairs round robin inside each group. Matches are shuffled
// before numbering so the play order is not predictable from the draw.
type GroupGenerator struct{}

func NewGroupGenerator() Generator {
	return &GroupGenerator{}
}

func (g *GroupGenerator) Name() string {
	return "Group"
}

// GroupName labels groups "Group A", "Group B", ... in draw order.
func GroupName(index int) string {
	if index < 26 {
		return fmt.Sprintf("Group %c", 'A'+index)
	}
	return fmt.Sprintf("Group %d", index+1)
}

func (g *GroupGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Fixture, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, fmt.Errorf("group: not enough participants (found %d, min 2 required)", n)
	}

	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	drawn := shuffled(params.Participants, rng)
	numGroups := (n + maxGroupSize - 1) / maxGroupSize

	groups := make([][]*models.Participant, numGroups)
	for i, p := range drawn {
		g := i % numGroups
		groups[g] = append(groups[g], p)
	}

	fixtures := make([]*Fixture, 0)
	for gi, members := range groups {
		name := GroupName(gi)
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				p1 := members[i].PlayerID
				p2 := members[j].PlayerID
				fixtures = append(fixtures, &Fixture{
					Round:      name,
					RoundOrder: gi + 1,
					Player1ID:  &p1,
					Player2ID:  &p2,
				})
			}
		}
	}

	rng.Shuffle(len(fixtures), func(i, j int) {
		fixtures[i], fixtures[j] = fixtures[j], fixtures[i]
	})
	for i, f := range fixtures {
		f.OrderInRound = i + 1
	}

	return fixtures, nil
}
