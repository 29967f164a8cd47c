package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Checked in this order; the first one present wins, regardless of where
// it sits in the text.
var commentDelimiters = []string{" -- ", " — ", " – ", " | ", " / ", "  "}

var commentKeywords = []string{
	"мб", "может", "возможно", "вероятно", "наверн", "скорее",
	"коммент", "комментар", "примечан", "замет", "note", "comment",
	"ещё", "еще", "купит", "доп", "доп.", "+", "потом",
}

// Splitter separates a trailing free-text comment from a channel name.
type Splitter struct {
	aliases    *Aliases
	delimiters []string
	keywords   []string
}

func NewSplitter(aliases *Aliases) *Splitter {
	return &Splitter{
		aliases:    aliases,
		delimiters: commentDelimiters,
		keywords:   commentKeywords,
	}
}

// Split returns the alias-normalized channel and the comment, which may be
// empty.
func (s *Splitter) Split(text string) (channel, comment string) {
	text = strings.TrimSpace(text)

	if label, rest, ok := s.cutLabel(text); ok {
		return label, rest
	}

	for _, delim := range s.delimiters {
		if i := strings.Index(text, delim); i >= 0 {
			return s.aliases.Channel(strings.TrimSpace(text[:i])),
				strings.TrimSpace(text[i+len(delim):])
		}
	}

	if pos := s.keywordPos(text); pos > 0 {
		runes := []rune(text)
		return s.aliases.Channel(strings.TrimSpace(string(runes[:pos]))),
			strings.TrimSpace(string(runes[pos:]))
	}

	return s.aliases.Channel(text), ""
}

// cutLabel recognises text that already starts with a canonical channel
// label, which may itself contain a delimiter.
func (s *Splitter) cutLabel(text string) (string, string, bool) {
	for _, label := range s.aliases.channelLabels {
		if len(text) < len(label) || !strings.EqualFold(text[:len(label)], label) {
			continue
		}
		rest := text[len(label):]
		if rest != "" && !strings.HasPrefix(rest, " ") {
			continue
		}
		comment := strings.TrimSpace(rest)
		for _, delim := range s.delimiters {
			d := strings.TrimSpace(delim)
			if d != "" && strings.HasPrefix(comment, d) {
				comment = strings.TrimSpace(comment[len(d):])
				break
			}
		}
		return label, comment, true
	}
	return "", "", false
}

// keywordPos is the rune offset of the earliest " <keyword>" in text, or -1.
func (s *Splitter) keywordPos(text string) int {
	lower := strings.Map(unicode.ToLower, text)
	best := -1
	for _, kw := range s.keywords {
		i := strings.Index(lower, " "+kw)
		if i <= 0 {
			continue
		}
		if best < 0 || i < best {
			best = i
		}
	}
	if best < 0 {
		return -1
	}
	return utf8.RuneCountInString(lower[:best])
}
