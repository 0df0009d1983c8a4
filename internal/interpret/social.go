package interpret

import (
	"errors"
	"regexp"
	"strings"

	"autopost/internal/model"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// SocialStrategies returns the social post tiers in the order they are tried.
func SocialStrategies() []Strategy[model.SocialPost] {
	return []Strategy[model.SocialPost]{
		{Name: "schema", Tier: TierStrict, Parse: strictSocial},
		{Name: "json", Tier: TierTolerant, Parse: tolerantSocial},
		{Name: "text", Tier: TierText, Parse: textSocial},
	}
}

// Social interprets raw as a social post for platform. Hashtags come from the
// hashtags field and from the text itself. The boolean is false only when raw
// is empty.
func Social(raw, platform string) (model.SocialPost, Tier, bool) {
	p, tier, err := Run(raw, SocialStrategies())
	if err != nil {
		return model.SocialPost{}, TierNone, false
	}
	p.Platform = platform
	p.Text = strings.TrimSpace(p.Text)
	p.Hashtags = Hashtags(append(p.Hashtags, hashtagRe.FindAllString(p.Text, -1)...))
	return p, tier, true
}

// Hashtags normalizes tags to a single leading '#' with no inner spaces and
// drops case-insensitive duplicates, keeping first spellings.
func Hashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.Join(strings.Fields(strings.TrimLeft(strings.TrimSpace(t), "#")), "")
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, "#"+t)
	}
	return out
}

func strictSocial(raw string) (model.SocialPost, error) {
	doc, err := validate(raw, func() *jsonschema.Schema { return socialSchema })
	if err != nil {
		return model.SocialPost{}, err
	}
	return socialFromDoc(doc), nil
}

func tolerantSocial(raw string) (model.SocialPost, error) {
	doc, err := decodeObject(stripFence(raw))
	if err != nil {
		return model.SocialPost{}, err
	}
	p := socialFromDoc(doc)
	if strings.TrimSpace(p.Text) == "" {
		return model.SocialPost{}, errors.New("text missing")
	}
	return p, nil
}

// textSocial takes the whole response as the post text.
func textSocial(raw string) (model.SocialPost, error) {
	return model.SocialPost{Text: stripFence(raw)}, nil
}

func socialFromDoc(doc map[string]any) model.SocialPost {
	p := model.SocialPost{Text: stringField(doc, "text")}
	if tags, ok := doc["hashtags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				p.Hashtags = append(p.Hashtags, s)
			}
		}
	}
	return p
}
