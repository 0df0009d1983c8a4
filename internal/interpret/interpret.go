// Package interpret turns free-form model output into structured results.
// Each result kind has an ordered list of parser strategies; the first strategy
// that parses without error wins, even when its result is empty.
package interpret

import (
	"errors"
	"fmt"
	"strings"
)

// Tier identifies which strategy produced a result.
type Tier int

const (
	TierNone Tier = iota
	TierStrict
	TierTolerant
	TierText
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierTolerant:
		return "tolerant"
	case TierText:
		return "text"
	default:
		return "none"
	}
}

var (
	ErrEmpty     = errors.New("interpret: empty response")
	ErrNotObject = errors.New("interpret: payload is not a JSON object")
)

// Strategy is one parser tier.
type Strategy[T any] struct {
	Name  string
	Tier  Tier
	Parse func(raw string) (T, error)
}

// Run tries strategies in order and returns the first successful parse.
func Run[T any](raw string, strategies []Strategy[T]) (T, Tier, error) {
	var zero T
	if strings.TrimSpace(raw) == "" {
		return zero, TierNone, ErrEmpty
	}
	var errs []error
	for _, s := range strategies {
		v, err := s.Parse(raw)
		if err == nil {
			return v, s.Tier, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return zero, TierNone, errors.Join(errs...)
}

const (
	fenceOpen  = "```json"
	fenceClose = "```"
)

// stripFence removes a leading ```json marker and a trailing ``` marker.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, fenceOpen)
	s = strings.TrimSuffix(s, fenceClose)
	return strings.TrimSpace(s)
}
