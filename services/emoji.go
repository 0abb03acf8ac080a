package services

import (
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

// emojiHit is one emoji occurrence in a text.
type emojiHit struct {
	char string
	slug string
}

// findEmojis returns the emojis of text in order of appearance. Each grapheme
// cluster counts once, so skin-tone and ZWJ sequences are a single emoji.
func findEmojis(text string) []emojiHit {
	var hits []emojiHit
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		cluster := gr.Str()
		if !gomoji.ContainsEmoji(cluster) {
			continue
		}
		if slug, ok := emojiSlug(cluster); ok {
			hits = append(hits, emojiHit{char: cluster, slug: slug})
		}
	}
	return hits
}

// emojiSlug names a cluster, e.g. "thumbs_up_medium_skin_tone".
func emojiSlug(cluster string) (string, bool) {
	info, err := gomoji.GetInfo(cluster)
	if err != nil {
		info, err = gomoji.GetInfo(strings.ReplaceAll(cluster, "\ufe0f", ""))
	}
	if err != nil {
		// Sequences unknown to the table are named after their longest known part.
		for _, e := range gomoji.FindAll(cluster) {
			if len(e.Character) > len(info.Character) {
				info = e
			}
		}
	}
	if info.Slug == "" {
		return "", false
	}
	return strings.ReplaceAll(info.Slug, "-", "_"), true
}

// ExtractEmojis concatenates the emojis of text in order of appearance.
func ExtractEmojis(text string) string {
	var b strings.Builder
	for _, h := range findEmojis(text) {
		b.WriteString(h.char)
	}
	return b.String()
}

// EmojisToText names each emoji, e.g. "😀👍" becomes "grinning_face thumbs_up".
func EmojisToText(text string) string {
	hits := findEmojis(text)
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.slug
	}
	return strings.Join(names, " ")
}
