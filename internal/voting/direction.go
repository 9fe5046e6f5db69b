package voting

import (
	"fmt"

	"github.com/Jaychangani2005/StackIt/internal/models"
)

// Direction is a voter's current opinion on a target. The zero value
// None means the voter has no ledger row for the target.
type Direction string

const (
	None Direction = ""
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection accepts the wire values "up" and "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Value is the direction's contribution to a target's net score.
func (d Direction) Value() int {
	switch d {
	case Up:
		return models.VoteUp
	case Down:
		return models.VoteDown
	default:
		return 0
	}
}

func directionFromValue(v int) Direction {
	switch v {
	case models.VoteUp:
		return Up
	case models.VoteDown:
		return Down
	default:
		return None
	}
}
