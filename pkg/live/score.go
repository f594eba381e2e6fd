package live

import "time"

// Scoring weights. Silence contributes up to 80 points (ratio capped at
// 2x threshold); text shape contributes the rest.
const (
	silenceWeight     = 40.0
	silenceRatioCap   = 2.0
	terminalBonus     = 25.0
	pausePenalty      = 10.0
	completionBonus   = 20.0
	incompletePenalty = 25.0
	lengthBonus       = 15.0
	lengthPenalty     = 15.0
	questionBonus     = 15.0
	discourseBonus    = 10.0
	questionMinWords  = 5
)

// ScoreFactors itemizes what went into an end-of-turn score.
type ScoreFactors struct {
	SilenceScore         float64 `json:"silence_score"`
	WordCount            int     `json:"word_count"`
	HasPunctuation       bool    `json:"has_punctuation"`
	HasCompletePattern   bool    `json:"has_complete_pattern"`
	HasIncompletePattern bool    `json:"has_incomplete_pattern"`
}

// Score is an end-of-turn likelihood on a 0-100 scale.
type Score struct {
	Value   float64      `json:"value"`
	Factors ScoreFactors `json:"factors"`
}

// Confidence maps the score onto [0,1].
func (s Score) Confidence() float64 {
	return s.Value / 100
}

// EndOfTurn reports whether the score clears the decision threshold.
func (s Score) EndOfTurn(threshold float64) bool {
	return s.Value >= threshold
}

// CountdownMultiplier shortens the silence countdown when the score is
// confident and stretches it when it is not.
func (s Score) CountdownMultiplier() float64 {
	conf := s.Confidence()
	switch {
	case conf > 0.8:
		return 0.7
	case conf > 0.6:
		return 0.85
	default:
		return 1.2
	}
}

// ScoreEndOfTurn rates how likely the accumulated text is a finished turn
// given the silence observed since the last transcript activity.
func ScoreEndOfTurn(text string, silence time.Duration, cfg TurnConfig) Score {
	f := ScoreFactors{WordCount: WordCount(text)}
	value := 0.0

	ratio := float64(silence.Milliseconds()) / float64(cfg.SilenceThreshold.Milliseconds())
	if ratio < 0 {
		ratio = 0
	}
	if ratio > silenceRatioCap {
		ratio = silenceRatioCap
	}
	f.SilenceScore = ratio * silenceWeight
	value += f.SilenceScore

	if endsWithTerminal(text) {
		f.HasPunctuation = true
		value += terminalBonus
	} else if endsWithPause(text) {
		value -= pausePenalty
	}

	if HasCompletionPhrase(text) {
		f.HasCompletePattern = true
		value += completionBonus
	}
	if EndsIncomplete(text) {
		f.HasIncompletePattern = true
		value -= incompletePenalty
	}

	if f.WordCount >= longUtteranceWords {
		value += lengthBonus
	} else if f.WordCount < shortUtteranceWords {
		value -= lengthPenalty
	}

	if endsWithQuestion(text) && f.WordCount >= questionMinWords {
		value += questionBonus
	}
	if HasDiscourseMarker(text) {
		value += discourseBonus
	}

	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return Score{Value: value, Factors: f}
}
