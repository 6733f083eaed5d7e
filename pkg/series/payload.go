package series

import (
	"encoding/json"
	"fmt"
)

// Payload is the wire form of a Series. Exactly one of Bars or Points is set
// according to Kind.
type Payload struct {
	Kind   Kind    `json:"kind"`
	Bars   []Bar   `json:"bars,omitempty"`
	Points []Point `json:"points,omitempty"`
}

// ToSeries validates the payload and converts it to a Series
func (p Payload) ToSeries() (Series, error) {
	switch p.Kind {
	case KindBar:
		if len(p.Points) > 0 {
			return Series{}, ErrMixedKinds
		}
		return NewBarSeries(p.Bars)
	case KindPoint:
		if len(p.Bars) > 0 {
			return Series{}, ErrMixedKinds
		}
		return NewPointSeries(p.Points)
	case "":
		// Infer the kind from whichever list is populated
		if len(p.Bars) > 0 && len(p.Points) > 0 {
			return Series{}, ErrMixedKinds
		}
		if len(p.Points) > 0 {
			return NewPointSeries(p.Points)
		}
		return NewBarSeries(p.Bars)
	default:
		return Series{}, fmt.Errorf("unknown series kind %q", p.Kind)
	}
}

// PayloadOf converts a Series back to its wire form
func PayloadOf(s Series) Payload {
	p := Payload{Kind: s.Kind()}
	for _, d := range s.items {
		switch v := d.(type) {
		case Bar:
			p.Bars = append(p.Bars, v)
		case Point:
			p.Points = append(p.Points, v)
		}
	}
	return p
}

// ParsePayload decodes raw JSON into a Series
func ParsePayload(data []byte) (Series, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Series{}, fmt.Errorf("failed to parse series JSON: %w", err)
	}
	return p.ToSeries()
}
