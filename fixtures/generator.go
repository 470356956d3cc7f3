package fixtures

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pitchside/efootball-arena/models"
)

// Fixture is a match draft produced by a generator, before persistence
// assigns match numbers and scheduled times.
type Fixture struct {
	Round        string
	RoundOrder   int
	OrderInRound int

	Player1ID *int
	Player2ID *int

	// A bye carries only Player1ID and is persisted as an
	// immediately-completed match crediting that player as winner.
	IsBye       bool
	ByePlayerID *int
}

type GenerateParams struct {
	Tournament   *models.Tournament
	Participants []*models.Participant

	// Rand drives shuffles and bye selection so callers can fix the
	// bracket shape. When nil, generators fall back to a time-seeded
	// source.
	Rand *rand.Rand
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*Fixture, error)

	Name() string
}

// ErrUnknownFormat is returned by ForFormat for formats with no generator.
var ErrUnknownFormat = fmt.Errorf("unknown tournament format")

// ForFormat dispatches to the generator variant for the given format.
// group_knockout uses the group generator: the knockout stage is deferred to
// the progression driver once group results determine qualifiers.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatKnockout:
		return NewKnockoutGenerator(), nil
	case models.FormatLeague:
		return NewLeagueGenerator(), nil
	case models.FormatGroup, models.FormatGroupKnockout:
		return NewGroupGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// KnockoutRoundName maps the remaining-player count to the round label.
func KnockoutRoundName(playerCount int) string {
	switch playerCount {
	case 2:
		return "Final"
	case 4:
		return "Semi-Finals"
	case 8:
		return "Quarter-Finals"
	case 16:
		return "Round of 16"
	}
	return fmt.Sprintf("Round %d", playerCount)
}

func shuffled(participants []*models.Participant, rng *rand.Rand) []*models.Participant {
	out := make([]*models.Participant, len(participants))
	copy(out, participants)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
