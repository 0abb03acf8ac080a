package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractEmojis_Sequences(t *testing.T) {
	family := "👨‍👩‍👧"
	tests := []struct {
		in    string
		want  string
		names int
	}{
		{"super 👍", "👍", 1},
		{"👍🏽", "👍🏽", 1},
		{"👍 et 👍🏽", "👍👍🏽", 2},
		{"famille " + family + " ravie", family, 1},
		{"merci ❤️❤️", "❤️❤️", 2},
		{"aucun emoji ici", "", 0},
	}
	for _, tt := range tests {
		if got := ExtractEmojis(tt.in); got != tt.want {
			t.Errorf("ExtractEmojis(%q) = %q; want %q", tt.in, got, tt.want)
		}
		if got := strings.Fields(EmojisToText(tt.in)); len(got) != tt.names {
			t.Errorf("EmojisToText(%q) = %q; want %d names", tt.in, got, tt.names)
		}
	}
}

func TestEmojisToText_SkinTone(t *testing.T) {
	require.Equal(t, "thumbs_up thumbs_up_medium_skin_tone", EmojisToText("👍 puis 👍🏽"))
}

func TestAnalyze_SkinToneEmojis(t *testing.T) {
	ft := NewFeatureExtractor(newTestLogger()).Analyze("top 👍🏽👍🏽")

	require.Equal(t, 2, ft.EmojiCount)
	require.Equal(t, 1, ft.EmojiDiversity)
	require.Equal(t, "👍🏽👍🏽", ft.Emojis)
	require.Greater(t, ft.EmojiSentiment, 0.0)
}

func TestWithoutSkinTone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"thumbs_up_medium_skin_tone", "thumbs_up"},
		{"thumbs_up_medium_light_skin_tone", "thumbs_up"},
		{"clapping_hands_dark_skin_tone", "clapping_hands"},
		{"red_heart", "red_heart"},
	}
	for _, tt := range tests {
		if got := withoutSkinTone(tt.in); got != tt.want {
			t.Errorf("withoutSkinTone(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
