package feedback

import (
	"errors"
	"fmt"
	"strings"
)

// Position selects where overlay text is anchored on the concept image.
type Position int

const (
	PositionTop Position = iota
	PositionCenter
	PositionBottom
)

var ErrInvalidPosition = errors.New("invalid text position")

var positionNames = map[Position]string{
	PositionTop:    "Top",
	PositionCenter: "Center",
	PositionBottom: "Bottom",
}

// Positions lists all positions in the order they are offered to the user.
func Positions() []Position {
	return []Position{PositionTop, PositionCenter, PositionBottom}
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// ParsePosition accepts "Top", "Center" or "Bottom" in any case.
func ParsePosition(s string) (Position, error) {
	for _, p := range Positions() {
		if strings.EqualFold(strings.TrimSpace(s), positionNames[p]) {
			return p, nil
		}
	}
	return PositionTop, fmt.Errorf("%w: %q (must be Top, Center or Bottom)", ErrInvalidPosition, s)
}
