package feed

import "time"

// Direction classifies a quote update relative to the previous mid.
type Direction uint8

const (
	DirectionUnchanged Direction = iota
	DirectionUp
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "unchanged"
	}
}

// Quote is the current two-sided price for one symbol. A new Quote supersedes
// the previous one for that symbol on every accepted update.
type Quote struct {
	Symbol           string
	Bid              float64
	Ask              float64
	Mid              float64
	Spread           float64
	Change24h        float64
	ChangePercent24h float64
	Time             time.Time
	Direction        Direction
}
