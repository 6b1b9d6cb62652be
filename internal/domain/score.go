package domain

import "encoding/json"

// DefaultCompleteness is substituted when a stored completeness value is
// absent or not a scalar number.
const DefaultCompleteness = 0.7

// Score is a 0-10 priority score that tolerates type drift in stored
// documents: older records and bad advisory responses occasionally carry a
// structured value where a number belongs, and the read path must not fail.
// Anything that is not a JSON number decodes as 0.
type Score float64

// UnmarshalJSON coerces non-numeric values to 0 instead of erroring.
func (s *Score) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*s = 0
		return nil
	}
	*s = Score(f)
	return nil
}

// Completeness is a [0,1] completeness estimate with the same tolerant
// decoding as Score, except non-numeric values fall back to the default
// rather than zero.
type Completeness float64

// UnmarshalJSON coerces non-numeric values to DefaultCompleteness.
func (c *Completeness) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*c = DefaultCompleteness
		return nil
	}
	*c = Completeness(f)
	return nil
}

// Clamped bounds the value to [0,1].
func (c Completeness) Clamped() float64 {
	v := float64(c)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
