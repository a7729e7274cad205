// Package sentiment implements a lexicon and rule based polarity analyzer
// following the VADER scoring rules: per-word valence, booster words, negation
// within a three word window, "but" contrast weighting, capitalisation and
// punctuation emphasis, and a normalised compound score in [-1, 1].
package sentiment

import (
	"math"
	"strings"
	"unicode"

	"github.com/ashudevin/caremind/internal/domain"
)

const (
	bIncr   = 0.293
	bDecr   = -0.293
	cIncr   = 0.733
	nScalar = -0.74
	alpha   = 15.0
)

// Analyzer implements domain.SentimentClassifier
type Analyzer struct{}

// NewAnalyzer creates a new analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Classify returns the polarity scores of text
func (a *Analyzer) Classify(text string) domain.SentimentScores {
	words := tokenize(text)
	if len(words) == 0 {
		return domain.SentimentScores{}
	}

	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}
	capDiff := allCapDifferential(words)

	sentiments := make([]float64, 0, len(words))
	for i := range words {
		if _, ok := boosters[lower[i]]; ok {
			sentiments = append(sentiments, 0)
			continue
		}
		if i < len(words)-1 && lower[i] == "kind" && lower[i+1] == "of" {
			sentiments = append(sentiments, 0)
			continue
		}
		sentiments = append(sentiments, valence(words, lower, i, capDiff))
	}

	butCheck(lower, sentiments)

	return scoreValence(sentiments, text)
}

func valence(words, lower []string, i int, capDiff bool) float64 {
	v, ok := lexicon[lower[i]]
	if !ok {
		return 0
	}
	// "no" before another rated word acts as a negator, not a sentiment
	if lower[i] == "no" && i < len(words)-1 {
		if _, next := lexicon[lower[i+1]]; next {
			return 0
		}
	}
	if capDiff && isUpper(words[i]) {
		if v > 0 {
			v += cIncr
		} else {
			v -= cIncr
		}
	}

	for start := 0; start < 3; start++ {
		j := i - (start + 1)
		if j < 0 {
			break
		}
		if _, rated := lexicon[lower[j]]; rated {
			continue
		}
		s := scalarIncDec(words[j], lower[j], v, capDiff)
		switch {
		case start == 1 && s != 0:
			s *= 0.95
		case start == 2 && s != 0:
			s *= 0.9
		}
		v += s
		v = negationCheck(v, lower, start, i)
	}
	return v
}

func scalarIncDec(word, lowerWord string, v float64, capDiff bool) float64 {
	scalar, ok := boosters[lowerWord]
	if !ok {
		return 0
	}
	if v < 0 {
		scalar = -scalar
	}
	if capDiff && isUpper(word) {
		if v > 0 {
			scalar += cIncr
		} else {
			scalar -= cIncr
		}
	}
	return scalar
}

func negationCheck(v float64, lower []string, start, i int) float64 {
	switch start {
	case 0:
		if negated(lower[i-1]) {
			v *= nScalar
		}
	case 1:
		switch {
		case lower[i-2] == "never" && (lower[i-1] == "so" || lower[i-1] == "this"):
			v *= 1.25
		case lower[i-2] == "without" && lower[i-1] == "doubt":
		case negated(lower[i-2]):
			v *= nScalar
		}
	case 2:
		switch {
		case lower[i-3] == "never" && (lower[i-2] == "so" || lower[i-2] == "this" || lower[i-1] == "so" || lower[i-1] == "this"):
			v *= 1.25
		case lower[i-3] == "without" && (lower[i-2] == "doubt" || lower[i-1] == "doubt"):
		case negated(lower[i-3]):
			v *= nScalar
		}
	}
	return v
}

func negated(word string) bool {
	if strings.Contains(word, "n't") {
		return true
	}
	_, ok := negations[strings.ReplaceAll(word, "'", "")]
	return ok
}

// butCheck dampens sentiment before "but" and amplifies it after
func butCheck(lower []string, sentiments []float64) {
	bi := -1
	for i, w := range lower {
		if w == "but" {
			bi = i
			break
		}
	}
	if bi < 0 {
		return
	}
	for i := range sentiments {
		switch {
		case i < bi:
			sentiments[i] *= 0.5
		case i > bi:
			sentiments[i] *= 1.5
		}
	}
}

func scoreValence(sentiments []float64, text string) domain.SentimentScores {
	var sum float64
	for _, s := range sentiments {
		sum += s
	}

	punct := punctuationEmphasis(text)
	switch {
	case sum > 0:
		sum += punct
	case sum < 0:
		sum -= punct
	}
	compound := normalize(sum)

	var pos, neg, neu float64
	for _, s := range sentiments {
		switch {
		case s > 0:
			pos += s + 1
		case s < 0:
			neg += s - 1
		default:
			neu++
		}
	}
	switch {
	case pos > math.Abs(neg):
		pos += punct
	case pos < math.Abs(neg):
		neg -= punct
	}

	total := pos + math.Abs(neg) + neu
	if total == 0 {
		return domain.SentimentScores{Compound: round(compound, 4)}
	}
	return domain.SentimentScores{
		Positive: round(math.Abs(pos/total), 3),
		Negative: round(math.Abs(neg/total), 3),
		Neutral:  round(math.Abs(neu/total), 3),
		Compound: round(compound, 4),
	}
}

func punctuationEmphasis(text string) float64 {
	ep := strings.Count(text, "!")
	if ep > 4 {
		ep = 4
	}
	emphasis := float64(ep) * 0.292

	qm := strings.Count(text, "?")
	if qm > 1 {
		if qm <= 3 {
			emphasis += float64(qm) * 0.18
		} else {
			emphasis += 0.96
		}
	}
	return emphasis
}

func normalize(score float64) float64 {
	n := score / math.Sqrt(score*score+alpha)
	return math.Max(-1, math.Min(1, n))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func tokenize(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '\''
		})
		w = strings.Trim(w, "'")
		if len(w) > 1 || (len(w) == 1 && unicode.IsLetter(rune(w[0]))) {
			words = append(words, w)
		}
	}
	return words
}

// allCapDifferential reports whether some, but not all, words are shouted
func allCapDifferential(words []string) bool {
	caps := 0
	for _, w := range words {
		if isUpper(w) {
			caps++
		}
	}
	return caps > 0 && caps < len(words)
}

func isUpper(word string) bool {
	hasLetter := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter && len(word) > 1
}
