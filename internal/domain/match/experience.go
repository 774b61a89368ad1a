package match

import (
	"context"
	"regexp"
	"strings"

	"jobwatch/pkg/logger"
)

// Level is a canonical experience bucket detected from posting titles.
type Level string

// Canonical experience levels.
const (
	LevelIntern Level = "intern"
	LevelEntry  Level = "entry"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
)

// levelPatterns maps each level to the title keywords that signal it.
// Word boundaries keep "sr" from firing inside unrelated words.
var levelPatterns = map[Level]*regexp.Regexp{
	LevelIntern: regexp.MustCompile(`(?i)\b(intern|internship|co-?op|trainee)\b`),
	LevelEntry:  regexp.MustCompile(`(?i)\b(entry([\s-]?level)?|junior|jr|graduate|grad|associate)\b`),
	LevelMid:    regexp.MustCompile(`(?i)\b(mid([\s-]?level)?|intermediate)\b`),
	LevelSenior: regexp.MustCompile(`(?i)\b(senior|sr|lead|principal|staff|director|manager|head)\b`),
}

// detectOrder keeps DetectLevels deterministic; map iteration is not.
var detectOrder = []Level{LevelIntern, LevelEntry, LevelMid, LevelSenior}

// DetectLevels scans a title for experience-level keywords and returns every
// level detected. An empty result means the title is ambiguous.
func DetectLevels(title string) []Level {
	var levels []Level
	for _, lvl := range detectOrder {
		if levelPatterns[lvl].MatchString(title) {
			levels = append(levels, lvl)
		}
	}
	return levels
}

// parseLevels converts configured level names into the allow-set. Unknown
// names are logged and skipped rather than failing the engine.
func parseLevels(ctx context.Context, log logger.Logger, names []string) map[Level]bool {
	allowed := make(map[Level]bool, len(names))
	for _, name := range names {
		switch Level(strings.ToLower(strings.TrimSpace(name))) {
		case LevelIntern:
			allowed[LevelIntern] = true
		case LevelEntry:
			allowed[LevelEntry] = true
		case LevelMid:
			allowed[LevelMid] = true
		case LevelSenior:
			allowed[LevelSenior] = true
		default:
			log.Warn(ctx, "unknown experience level in config, ignoring",
				logger.String("level", name))
		}
	}
	return allowed
}
