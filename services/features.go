package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"review-scraper/storage"
	"review-scraper/utils"
)

// NullValueError reports the first empty cell of the analysed column.
type NullValueError struct {
	Column string
	Row    int
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("column %q has an empty value at row %d", e.Column, e.Row)
}

// FeatureColumns are appended by FeatureExtractor.Extract, in this order.
var FeatureColumns = []string{
	"text_sentiment", "emojis", "emoji_text", "emoji_sentiment", "emoji_count", "emoji_diversity",
	"emoji_ratio", "exclamation_marks", "question_marks", "exclamation_ratio", "question_ratio",
	"ellipsis", "exclamation_series", "quotes", "parentheses", "combined_punctuation",
	"uppercase_words", "lowercase_words", "uppercase_ratio", "lowercase_ratio", "topic",
}

var (
	exclamationSeriesRegexp = regexp.MustCompile(`!{2,}`)
	combinedPunctRegexp     = regexp.MustCompile(`\?!|!\?`)
)

// TextFeatures are the per-text measurements behind FeatureColumns.
type TextFeatures struct {
	Sentiment           float64
	Emojis              string
	EmojiText           string
	EmojiSentiment      float64
	EmojiCount          int
	EmojiDiversity      int
	EmojiRatio          float64
	ExclamationMarks    int
	QuestionMarks       int
	ExclamationRatio    float64
	QuestionRatio       float64
	Ellipsis            int
	ExclamationSeries   int
	Quotes              int
	Parentheses         int
	CombinedPunctuation int
	UppercaseWords      int
	LowercaseWords      int
	UppercaseRatio      float64
	LowercaseRatio      float64
	Topic               string
}

// FeatureExtractor derives sentiment, emoji, punctuation, case and topic
// features from a text column.
type FeatureExtractor struct {
	logger *utils.Logger
	topics *TopicClassifier
}

// NewFeatureExtractor creates a FeatureExtractor with the default topics.
func NewFeatureExtractor(logger *utils.Logger) *FeatureExtractor {
	return &FeatureExtractor{logger: logger, topics: NewTopicClassifier(nil)}
}

// Analyze measures one text.
func (f *FeatureExtractor) Analyze(text string) TextFeatures {
	words := strings.Fields(text)
	wordCount := max(len(words), 1)

	hits := findEmojis(text)
	distinct := make(map[string]struct{}, len(hits))
	var emojis strings.Builder
	names := make([]string, len(hits))
	for i, h := range hits {
		emojis.WriteString(h.char)
		names[i] = h.slug
		distinct[h.char] = struct{}{}
	}
	emojiText := strings.Join(names, " ")

	ft := TextFeatures{
		Sentiment:           SentimentScore(text),
		Emojis:              emojis.String(),
		EmojiText:           emojiText,
		EmojiSentiment:      EmojiSentimentScore(emojiText),
		EmojiCount:          len(hits),
		EmojiDiversity:      len(distinct),
		EmojiRatio:          float64(len(hits)) / float64(wordCount),
		ExclamationMarks:    strings.Count(text, "!"),
		QuestionMarks:       strings.Count(text, "?"),
		Ellipsis:            strings.Count(text, "..."),
		ExclamationSeries:   len(exclamationSeriesRegexp.FindAllString(text, -1)),
		Quotes:              strings.Count(text, `"`) + strings.Count(text, "'"),
		Parentheses:         strings.Count(text, "(") + strings.Count(text, ")"),
		CombinedPunctuation: len(combinedPunctRegexp.FindAllString(text, -1)),
		Topic:               f.topics.Classify(text),
	}
	for _, w := range words {
		switch wordCase(w) {
		case caseUpper:
			ft.UppercaseWords++
		case caseLower:
			ft.LowercaseWords++
		}
	}
	ft.ExclamationRatio = float64(ft.ExclamationMarks) / float64(wordCount)
	ft.QuestionRatio = float64(ft.QuestionMarks) / float64(wordCount)
	ft.UppercaseRatio = float64(ft.UppercaseWords) / float64(wordCount)
	ft.LowercaseRatio = float64(ft.LowercaseWords) / float64(wordCount)
	return ft
}

// Extract appends FeatureColumns to t, computed from column. It never
// removes or reorders rows. Every cell of column must be non-empty.
func (f *FeatureExtractor) Extract(t *storage.Table, column string) error {
	if err := t.Require(column); err != nil {
		return err
	}
	for i, v := range t.Column(column) {
		if strings.TrimSpace(v) == "" {
			return &NullValueError{Column: column, Row: i}
		}
	}

	for _, col := range FeatureColumns {
		t.AddColumn(col)
	}
	for i := 0; i < t.Len(); i++ {
		ft := f.Analyze(t.Get(i, column))
		for col, v := range ft.values() {
			t.Set(i, col, v)
		}
	}

	f.logger.Info("[features] Extracted %d features for %d rows from %q",
		len(FeatureColumns), t.Len(), column)
	return nil
}

func (ft TextFeatures) values() map[string]string {
	return map[string]string{
		"text_sentiment":       formatFloat(ft.Sentiment),
		"emojis":               ft.Emojis,
		"emoji_text":           ft.EmojiText,
		"emoji_sentiment":      formatFloat(ft.EmojiSentiment),
		"emoji_count":          strconv.Itoa(ft.EmojiCount),
		"emoji_diversity":      strconv.Itoa(ft.EmojiDiversity),
		"emoji_ratio":          formatFloat(ft.EmojiRatio),
		"exclamation_marks":    strconv.Itoa(ft.ExclamationMarks),
		"question_marks":       strconv.Itoa(ft.QuestionMarks),
		"exclamation_ratio":    formatFloat(ft.ExclamationRatio),
		"question_ratio":       formatFloat(ft.QuestionRatio),
		"ellipsis":             strconv.Itoa(ft.Ellipsis),
		"exclamation_series":   strconv.Itoa(ft.ExclamationSeries),
		"quotes":               strconv.Itoa(ft.Quotes),
		"parentheses":          strconv.Itoa(ft.Parentheses),
		"combined_punctuation": strconv.Itoa(ft.CombinedPunctuation),
		"uppercase_words":      strconv.Itoa(ft.UppercaseWords),
		"lowercase_words":      strconv.Itoa(ft.LowercaseWords),
		"uppercase_ratio":      formatFloat(ft.UppercaseRatio),
		"lowercase_ratio":      formatFloat(ft.LowercaseRatio),
		"topic":                ft.Topic,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type letterCase int

const (
	caseNone letterCase = iota
	caseUpper
	caseLower
)

// wordCase is caseUpper when w has cased letters and all are upper case,
// caseLower when all are lower case.
func wordCase(w string) letterCase {
	upper, lower := 0, 0
	for _, r := range w {
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLower(r):
			lower++
		}
	}
	switch {
	case upper > 0 && lower == 0:
		return caseUpper
	case lower > 0 && upper == 0:
		return caseLower
	}
	return caseNone
}
