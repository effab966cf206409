// Package hashtag extracts hashtags from post titles and folds synonymous
// variants into one canonical tag so that aggregation counts "#BTC" and
// "#bitcoin" as the same topic.
package hashtag

import (
	"regexp"
	"strings"
)

// tagRe matches hashtag tokens: '#' followed by alphanumerics/underscores.
var tagRe = regexp.MustCompile(`#[a-zA-Z0-9_]+`)

// synonymGroups maps each canonical tag to the raw variants that fold into it.
// Variants are matched after lower-casing and stripping the leading '#'.
var synonymGroups = map[string][]string{
	// Crypto
	"crypto":   {"crypto", "cryptocurrency", "cryptotok"},
	"memecoin": {"memecoin", "memecoins", "memecointok"},
	"solana":   {"solana", "sol", "solanamemecoins"},
	"bitcoin":  {"bitcoin", "btc"},
	"ethereum": {"ethereum", "eth"},
	"pumpfun":  {"pumpfun", "pump", "pumpanddump"},

	// Pokemon/TCG
	"pokemon":      {"pokemon", "pokemontok", "pokemontiktok", "pokemoncommunity"},
	"pokemoncards": {"pokemoncards", "pokemoncard", "pokemontcg"},
	"tcg":          {"tcg", "tradingcards", "tradingcardgame"},

	// Looksmaxxing
	"looksmax": {"looksmax", "looksmaxxing", "looksmaxing", "bonesmashing"},
	"mewing":   {"mewing", "mew", "mewingresults"},

	// Streaming
	"streamer": {"streamer", "streamers", "streaming", "twitchstreamer"},
	"vtuber":   {"vtuber", "vtubers", "vtuberen"},

	// General
	"fyp": {"fyp", "foryou", "foryoupage", "viral"},
}

// normalizeMap is the reverse lookup: variant -> canonical.
var normalizeMap = func() map[string]string {
	m := make(map[string]string)
	for canonical, variants := range synonymGroups {
		for _, v := range variants {
			m[v] = canonical
		}
	}
	return m
}()

// noiseTags are present on effectively every post and carry no topical signal;
// aggregation excludes them.
var noiseTags = map[string]struct{}{
	"fyp":   {},
	"rasmr": {},
}

// Normalize lower-cases a tag, strips the leading '#', and maps it through the
// synonym table. Tags outside the table pass through unchanged.
func Normalize(tag string) string {
	cleaned := strings.ToLower(strings.TrimPrefix(tag, "#"))
	if canonical, ok := normalizeMap[cleaned]; ok {
		return canonical
	}
	return cleaned
}

// Extract returns the canonical hashtags mentioned in a title, de-duplicated
// so a post mentioning the same canonical tag twice counts once. Order follows
// first appearance in the title.
func Extract(title string) []string {
	if title == "" {
		return nil
	}
	matches := tagRe.FindAllString(title, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := Normalize(m)
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// IsNoise reports whether a canonical tag is excluded from aggregates.
func IsNoise(tag string) bool {
	_, ok := noiseTags[tag]
	return ok
}
