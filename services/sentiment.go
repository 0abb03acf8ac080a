package services

import (
	"math"
	"strings"
	"unicode"
)

// sentimentAlpha normalises a raw valence sum into (-1, 1).
const sentimentAlpha = 15

// negationScale flips and damps a word preceded by a negation.
const negationScale = -0.74

// wordValence scores French and English review vocabulary on a -4..4 scale.
var wordValence = map[string]float64{
	// French
	"bien": 1.6, "bon": 1.9, "bonne": 1.9, "super": 2.9, "excellent": 3.2, "excellente": 3.2,
	"parfait": 3.1, "parfaite": 3.1, "parfaitement": 2.8, "top": 2.3, "génial": 3.0, "geniale": 3.0,
	"rapide": 1.8, "rapidement": 1.6, "efficace": 2.1, "sérieux": 1.8, "serieux": 1.8, "fiable": 2.0,
	"professionnel": 2.0, "professionnelle": 2.0, "aimable": 2.0, "sympathique": 2.0, "agréable": 2.1,
	"merci": 1.5, "recommande": 2.2, "satisfait": 2.0, "satisfaite": 2.0, "ravi": 2.6, "ravie": 2.6,
	"impeccable": 2.9, "conforme": 1.2, "soigné": 1.7, "soignée": 1.7, "réactif": 1.9, "reactif": 1.9,
	"arnaque": -3.2, "escroc": -3.3, "escroquerie": -3.3, "nul": -2.6, "nulle": -2.6, "horrible": -3.0,
	"mauvais": -2.5, "mauvaise": -2.5, "lent": -1.5, "lente": -1.5, "retard": -1.8, "retards": -1.8,
	"perdu": -2.0, "perdue": -2.0, "cassé": -2.2, "casse": -2.2, "abîmé": -2.1, "abime": -2.1,
	"endommagé": -2.1, "jamais": -1.2, "honteux": -2.9, "inadmissible": -2.9, "déçu": -2.3, "decu": -2.3,
	"déçue": -2.3, "décevant": -2.2, "decevant": -2.2, "catastrophe": -3.1, "catastrophique": -3.1,
	"incompétent": -2.6, "incompetent": -2.6, "injoignable": -2.3, "problème": -1.6, "probleme": -1.6,
	"fuir": -2.2, "pire": -3.0, "dommage": -1.4, "inacceptable": -2.8, "scandaleux": -3.0,
	// English
	"good": 1.9, "great": 3.1, "perfect": 3.0, "fast": 1.6, "quick": 1.4,
	"recommend": 2.0, "thanks": 1.9, "thank": 1.5, "happy": 2.7, "love": 3.2, "friendly": 2.2,
	"reliable": 1.9, "helpful": 1.8, "bad": -2.5, "terrible": -2.9, "awful": -3.0, "worst": -3.1,
	"slow": -1.5, "late": -1.4, "lost": -1.6, "broken": -2.0, "damaged": -2.0, "scam": -3.3,
	"never": -1.0, "poor": -2.1, "disappointed": -2.3, "useless": -2.5, "rude": -2.2,
}

// emojiValence scores emoji names as produced by EmojisToText.
var emojiValence = map[string]float64{
	"grinning_face": 2.2, "beaming_face_with_smiling_eyes": 2.5, "smiling_face_with_smiling_eyes": 2.4,
	"smiling_face_with_heart_eyes": 3.0, "face_with_tears_of_joy": 2.0, "slightly_smiling_face": 1.4,
	"winking_face": 1.5, "red_heart": 3.0, "thumbs_up": 2.2, "clapping_hands": 2.0, "ok_hand": 1.6,
	"star": 1.5, "glowing_star": 1.8, "party_popper": 2.3, "folded_hands": 1.4, "hundred_points": 2.4,
	"thumbs_down": -2.2, "angry_face": -2.5, "pouting_face": -2.7, "enraged_face": -2.7,
	"crying_face": -2.1, "loudly_crying_face": -2.3, "disappointed_face": -2.2, "face_with_rolling_eyes": -1.6,
	"broken_heart": -2.6, "nauseated_face": -2.3, "face_with_symbols_on_mouth": -2.9, "unamused_face": -1.8,
}

var negations = map[string]bool{
	"pas": true, "plus": true, "aucun": true, "aucune": true, "ni": true, "sans": true,
	"not": true, "no": true, "t": true, "without": true,
}

// SentimentScore rates text in [-1, 1] from its vocabulary. A negation within
// the three preceding words inverts and damps a word, and exclamation marks
// amplify the overall direction.
func SentimentScore(text string) float64 {
	words := sentimentTokens(text)
	var sum float64
	for i, w := range words {
		v, ok := wordValence[w]
		if !ok {
			continue
		}
		for j := max(0, i-3); j < i; j++ {
			if negations[words[j]] {
				v *= negationScale
				break
			}
		}
		sum += v
	}
	if sum != 0 {
		bang := float64(min(strings.Count(text, "!"), 4)) * 0.292
		sum += math.Copysign(bang, sum)
	}
	return normalizeValence(sum)
}

// EmojiSentimentScore rates a space-separated list of emoji names in [-1, 1].
func EmojiSentimentScore(emojiText string) float64 {
	var sum float64
	for _, name := range strings.Fields(emojiText) {
		v, ok := emojiValence[name]
		if !ok {
			v = emojiValence[withoutSkinTone(name)]
		}
		sum += v
	}
	return normalizeValence(sum)
}

var skinTones = []string{"_medium_light_skin_tone", "_medium_dark_skin_tone", "_light_skin_tone", "_medium_skin_tone", "_dark_skin_tone"}

func withoutSkinTone(name string) string {
	for _, tone := range skinTones {
		if strings.HasSuffix(name, tone) {
			return strings.TrimSuffix(name, tone)
		}
	}
	return name
}

func normalizeValence(sum float64) float64 {
	if sum == 0 {
		return 0
	}
	score := sum / math.Sqrt(sum*sum+sentimentAlpha)
	return math.Round(score*10000) / 10000
}

// sentimentTokens lowercases text and splits it on anything but letters,
// so "l'envoi" gives "l", "envoi" and "don't" gives "don", "t".
func sentimentTokens(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
}
