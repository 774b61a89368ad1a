// Package match implements the keyword matching engine that decides whether
// a posting is of interest. Evaluation is a pure function of the posting and
// the criteria the engine was built with; no I/O happens here.
package match

import (
	"context"
	"regexp"
	"strings"

	"jobwatch/internal/domain/model"
	"jobwatch/pkg/logger"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Matching modes.
const (
	ModeExact     = "exact"
	ModeTokenized = "tokenized"
	ModeFuzzy     = "fuzzy"
)

// Criteria is the operator's interest configuration, immutable for the
// lifetime of the engine.
type Criteria struct {
	Include          []string
	Exclude          []string
	Locations        []string
	ExperienceLevels []string
	Mode             string
	FuzzyThreshold   float64 // similarity ratio in [0,1], fuzzy mode only
	CaseSensitive    bool
}

// RatioFunc computes a token-set similarity ratio in [0,100].
type RatioFunc func(a, b string) int

// Engine evaluates postings against fixed criteria.
type Engine struct {
	include   []string
	exclude   []string
	locations []string
	allowed   map[Level]bool

	mode          string
	threshold     float64
	caseSensitive bool

	ratio  RatioFunc
	logger logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRatioFunc overrides the fuzzy similarity function.
func WithRatioFunc(fn RatioFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.ratio = fn
		}
	}
}

// New builds an Engine from criteria. Keywords are normalized once here so
// every evaluation works on pre-processed sets. An unknown matching mode is
// downgraded to tokenized with a warning; it never fails construction.
func New(ctx context.Context, c Criteria, opts ...Option) *Engine {
	e := &Engine{
		mode:          c.Mode,
		threshold:     c.FuzzyThreshold,
		caseSensitive: c.CaseSensitive,
		ratio:         func(a, b string) int { return fuzzy.TokenSetRatio(a, b) },
		logger:        logger.Get().Named("match"),
	}

	for _, opt := range opts {
		opt(e)
	}

	switch e.mode {
	case ModeExact, ModeTokenized, ModeFuzzy:
	default:
		e.logger.Warn(ctx, "unknown matching mode, falling back to tokenized",
			logger.String("mode", e.mode))
		e.mode = ModeTokenized
	}

	e.include = e.normalizeKeywords(c.Include)
	e.exclude = e.normalizeKeywords(c.Exclude)
	e.locations = e.normalizeKeywords(c.Locations)
	e.allowed = parseLevels(ctx, e.logger, c.ExperienceLevels)

	return e
}

// Matches reports whether the posting satisfies the criteria. Checks run in
// a fixed order and short-circuit on the first negative decision:
// empty include set, exclusions, location, experience level, inclusions.
func (e *Engine) Matches(p model.Posting) bool {
	// No include keywords means everything is of interest.
	if len(e.include) == 0 {
		return true
	}

	probe := p.ProbeText()

	if len(e.exclude) > 0 && e.matchesAny(probe, e.exclude) {
		return false
	}

	// Location check is skipped when the posting has no location (fail-open).
	if len(e.locations) > 0 && p.Location != "" {
		if !e.matchesAny(p.Location, e.locations) {
			return false
		}
	}

	// Titles with no recognizable level pass; detected levels must intersect
	// the allow-list.
	if len(e.allowed) > 0 {
		detected := DetectLevels(p.Title)
		if len(detected) > 0 && !e.anyAllowed(detected) {
			return false
		}
	}

	return e.matchesAny(probe, e.include)
}

func (e *Engine) anyAllowed(levels []Level) bool {
	for _, lvl := range levels {
		if e.allowed[lvl] {
			return true
		}
	}
	return false
}

// matchesAny checks text against every keyword under the active mode.
func (e *Engine) matchesAny(text string, keywords []string) bool {
	switch e.mode {
	case ModeExact:
		return e.exactMatch(text, keywords)
	case ModeFuzzy:
		// Tokenized first: cheap and exact. The similarity ratio is only
		// computed when the tokenized rule misses.
		if e.tokenizedMatch(text, keywords) {
			return true
		}
		return e.fuzzyMatch(text, keywords)
	default:
		return e.tokenizedMatch(text, keywords)
	}
}

// exactMatch accepts a keyword occurring as a contiguous substring of the
// normalized text.
func (e *Engine) exactMatch(text string, keywords []string) bool {
	normalized := e.normalizeText(text)
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// tokenizedMatch accepts a keyword when either every keyword token occurs as
// a whole token of the text, or the keyword's token sequence occurs
// contiguously in the text's token sequence. Trailing ordinals are stripped
// on both sides, so "Software Engineer" matches "Software Engineer III" but
// not "Software Engineering Manager".
func (e *Engine) tokenizedMatch(text string, keywords []string) bool {
	textTokens := tokenize(e.normalizeText(text))
	tokenSet := make(map[string]bool, len(textTokens))
	for _, t := range textTokens {
		tokenSet[t] = true
	}
	joined := " " + strings.Join(textTokens, " ") + " "

	for _, kw := range keywords {
		kwTokens := tokenize(kw)
		if len(kwTokens) == 0 {
			continue
		}

		all := true
		for _, kt := range kwTokens {
			if !tokenSet[kt] {
				all = false
				break
			}
		}
		if all {
			return true
		}

		if strings.Contains(joined, " "+strings.Join(kwTokens, " ")+" ") {
			return true
		}
	}
	return false
}

// fuzzyMatch accepts a keyword whose token-set similarity to the text meets
// the threshold. The ratio is order-insensitive and duplicate-insensitive,
// scaled to [0,100].
func (e *Engine) fuzzyMatch(text string, keywords []string) bool {
	normalized := e.normalizeText(text)
	threshold := e.threshold * 100
	for _, kw := range keywords {
		if float64(e.ratio(kw, normalized)) >= threshold {
			return true
		}
	}
	return false
}

func (e *Engine) normalizeText(text string) string {
	if e.caseSensitive {
		return text
	}
	return strings.ToLower(text)
}

func (e *Engine) normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		out = append(out, e.normalizeText(kw))
	}
	return out
}

var (
	// Trailing Roman numerals I-VIII or decimal numbers, e.g. "Engineer II".
	trailingOrdinal = regexp.MustCompile(`(?i)\s+(I{1,3}|IV|V|VI{0,3}|[0-9]+)$`)
	nonWord         = regexp.MustCompile(`[^\w\s]`)
)

// tokenize strips one trailing ordinal suffix, replaces non-word characters
// with whitespace, and splits into tokens.
func tokenize(text string) []string {
	text = trailingOrdinal.ReplaceAllString(text, "")
	text = nonWord.ReplaceAllString(text, " ")
	return strings.Fields(text)
}
