package interpret

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Choice is the selection payload: 1-based topic numbers as the model wrote them.
type Choice struct {
	Numbers   []int
	Reasoning string
}

var digitRun = regexp.MustCompile(`\d+`)

// SelectionStrategies returns the selection tiers in the order they are tried.
func SelectionStrategies() []Strategy[Choice] {
	return []Strategy[Choice]{
		{Name: "schema", Tier: TierStrict, Parse: strictChoice},
		{Name: "json", Tier: TierTolerant, Parse: tolerantChoice},
		{Name: "digits", Tier: TierText, Parse: digitChoice},
	}
}

// Selection interprets raw as a topic choice and returns 0-based candidate
// indices in the order the model gave them. Indices outside the candidate range
// and repeats are dropped before the result is cut to requestedCount, so they
// never take a slot. It never fails; an unusable response yields no indices.
func Selection(raw string, candidateCount, requestedCount int) ([]int, Tier) {
	choice, tier, err := Run(raw, SelectionStrategies())
	if err != nil {
		return nil, TierNone
	}
	if requestedCount <= 0 {
		return nil, tier
	}
	out := make([]int, 0, requestedCount)
	seen := make(map[int]struct{}, len(choice.Numbers))
	for _, n := range choice.Numbers {
		idx := n - 1
		if idx < 0 || idx >= candidateCount {
			slog.Debug("interpret: dropping out-of-range topic number", "number", n, "candidates", candidateCount)
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
		if len(out) == requestedCount {
			break
		}
	}
	return out, tier
}

func strictChoice(raw string) (Choice, error) {
	doc, err := validate(raw, func() *jsonschema.Schema { return selectionSchema })
	if err != nil {
		return Choice{}, err
	}
	c := Choice{Reasoning: stringField(doc, "reasoning")}
	for _, v := range doc["selected_numbers"].([]any) {
		if n, ok := toInt(v, false); ok {
			c.Numbers = append(c.Numbers, n)
		}
	}
	return c, nil
}

func tolerantChoice(raw string) (Choice, error) {
	doc, err := decodeObject(stripFence(raw))
	if err != nil {
		return Choice{}, err
	}
	c := Choice{Reasoning: stringField(doc, "reasoning")}
	v, ok := doc["selected_numbers"]
	if !ok || v == nil {
		return c, nil
	}
	list, ok := v.([]any)
	if !ok {
		return Choice{}, errors.New("selected_numbers is not an array")
	}
	for _, item := range list {
		if n, ok := toInt(item, true); ok {
			c.Numbers = append(c.Numbers, n)
		}
	}
	return c, nil
}

// digitChoice reads every maximal run of digits as a topic number. It cannot fail.
func digitChoice(raw string) (Choice, error) {
	var c Choice
	for _, m := range digitRun.FindAllString(raw, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue // overflow; far out of range anyway
		}
		c.Numbers = append(c.Numbers, n)
	}
	return c, nil
}

func decodeObject(s string) (map[string]any, error) {
	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

// toInt accepts integral JSON numbers, and numeric strings when lenient.
func toInt(v any, lenient bool) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case json.Number:
		n, err := strconv.Atoi(x.String())
		return n, err == nil
	case string:
		if !lenient {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}
