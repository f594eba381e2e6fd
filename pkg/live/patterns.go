package live

import (
	"regexp"
	"strings"
)

// Word-count boundaries shared by the auto-send gate and the scorer.
const (
	// longUtteranceWords counts as complete on length alone.
	longUtteranceWords = 15
	// naturalEndingWords counts as complete with a natural ending.
	naturalEndingWords = 10
	// shortUtteranceWords is the floor below which a length penalty applies.
	shortUtteranceWords = 5
)

// completionPhrases mark an utterance as semantically complete when it
// ends with one of them.
var completionPhrases = []string{
	"thank you", "thanks",
	"that's all", "that is all", "that's it",
	"exactly", "goodbye", "bye", "see you later",
	"yes", "no", "yeah", "yep", "nope",
	"okay", "ok", "sure", "alright",
	"sounds good", "got it", "perfect", "great",
}

// incompleteEndings are trailing words that leave an utterance dangling:
// conjunctions, prepositions, articles, and unfinished to-be/modal
// constructions ("I am", "I can").
var incompleteEndings = []string{
	"and", "or", "but", "so", "because", "if", "when", "while", "then",
	"with", "without", "to", "of", "in", "on", "at", "for", "from", "about",
	"the", "a", "an", "my", "your", "our", "their",
	"i", "is", "are", "was", "were", "be", "been", "being", "am",
	"can", "could", "would", "should", "will", "might", "must", "may",
	"i'm", "you're", "we're", "they're", "it's",
	"that", "this", "these", "those",
	"very", "really", "quite", "just",
}

// discourseMarkers signal natural conversational flow when present
// anywhere in the utterance.
var discourseMarkers = []string{
	"you know", "i think", "i mean", "i guess", "i feel", "i believe",
	"kind of", "sort of", "basically", "actually", "honestly",
	"at the end of the day",
}

// enderPhrases close a conversation outright; a fragment ending with one
// is a natural break regardless of punctuation.
var enderPhrases = []string{
	"goodbye", "bye", "talk to you later", "see you later",
	"that's all", "that is all", "that's it",
	"thank you", "thanks", "i'm done", "we're done",
}

// standalonePatterns match short fragments that read as complete on their
// own: greetings and direct requests.
var standalonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hello|hey|good (morning|afternoon|evening))\b[\s,!.a-z']{0,20}$`),
	regexp.MustCompile(`^(please\s+)?(tell|show|give|explain|describe|list|summarize|help)\b.{3,}$`),
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// endsWithTerminal reports a sentence-final mark: . ! ?
func endsWithTerminal(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// endsWithPause reports a clause-continuing mark: , ; :
func endsWithPause(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case ',', ';', ':':
		return true
	}
	return false
}

// endsWithQuestion reports a trailing question mark.
func endsWithQuestion(text string) bool {
	return strings.HasSuffix(strings.TrimSpace(text), "?")
}

// endsWithPhrase reports whether text ends with phrase at a word boundary,
// ignoring case and trailing punctuation.
func endsWithPhrase(text, phrase string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, ".!?,;: ")
	if !strings.HasSuffix(t, phrase) {
		return false
	}
	if len(t) == len(phrase) {
		return true
	}
	return t[len(t)-len(phrase)-1] == ' '
}

// HasCompletionPhrase reports whether text ends with a completion phrase.
func HasCompletionPhrase(text string) bool {
	for _, p := range completionPhrases {
		if endsWithPhrase(text, p) {
			return true
		}
	}
	return false
}

// EndsIncomplete reports whether text trails off mid-construction. A last
// word carrying terminal punctuation never counts as dangling.
func EndsIncomplete(text string) bool {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false
	}
	last := fields[len(fields)-1]
	for _, w := range incompleteEndings {
		if last == w {
			return true
		}
	}
	return false
}

// HasDiscourseMarker reports whether any natural-flow marker appears in
// the text.
func HasDiscourseMarker(text string) bool {
	t := normalizeWords(text)
	for _, m := range discourseMarkers {
		if strings.Contains(t, " "+m+" ") {
			return true
		}
	}
	return false
}

// normalizeWords lowercases text and flattens punctuation to spaces, with
// padding so containment checks stay word-aligned.
func normalizeWords(text string) string {
	t := strings.ToLower(text)
	t = strings.Map(func(r rune) rune {
		switch r {
		case '.', '!', '?', ',', ';', ':':
			return ' '
		}
		return r
	}, t)
	return " " + strings.Join(strings.Fields(t), " ") + " "
}

// HasNaturalEnding reports terminal punctuation or a completion phrase.
func HasNaturalEnding(text string) bool {
	return endsWithTerminal(text) || HasCompletionPhrase(text)
}

// IsNaturalBreak reports whether a just-arrived fragment alone reads as a
// conversation break: trailing terminal punctuation, an explicit ender
// phrase, or a standalone greeting/request shape.
func IsNaturalBreak(fragment string) bool {
	f := strings.TrimSpace(fragment)
	if f == "" {
		return false
	}
	if endsWithTerminal(f) {
		return true
	}
	for _, p := range enderPhrases {
		if endsWithPhrase(f, p) {
			return true
		}
	}
	lower := strings.ToLower(f)
	for _, re := range standalonePatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// ShouldAutoSend is the minimum-content gate an utterance must pass before
// any automatic send applies: at least MinWords words, no dangling ending,
// and enough substance (long enough outright, long enough with a natural
// ending, or a question of at least MinWords words).
func ShouldAutoSend(text string, cfg TurnConfig) bool {
	words := WordCount(text)
	if words < cfg.MinWords {
		return false
	}
	if EndsIncomplete(text) {
		return false
	}
	switch {
	case words >= longUtteranceWords:
		return true
	case words >= naturalEndingWords && HasNaturalEnding(text):
		return true
	case endsWithQuestion(text):
		return true
	}
	return false
}
