package keywords

import (
	"encoding/json"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DefaultKey is the reserved rule-table key holding the keyword list that is
// matched against comment text when no media-specific rule exists.
const DefaultKey = "DEFAULT_KEYWORDS"

// Rule configures the automated private reply for one media id (or the
// default fallback). The reply message may contain a literal "{username}"
// placeholder.
type Rule struct {
	Keywords            []string `json:"keywords"`
	PrivateReplyMessage string   `json:"private_reply_message"`
}

// RenderReply substitutes "{username}" occurrences with the commenter's
// username. No escaping, no recursive substitution.
func (r Rule) RenderReply(username string) string {
	return strings.ReplaceAll(r.PrivateReplyMessage, "{username}", username)
}

// Table maps media ids (plus the reserved DefaultKey) to reply rules. Loaded
// once at startup; reload requires a restart.
type Table map[string]Rule

// Load reads the keyword rule table from a JSON file. A missing or malformed
// file degrades to an empty table with a warning rather than failing startup:
// comments are still logged, no automated replies go out.
func Load(path string, logger *zap.Logger) Table {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Keyword rule file not found, comment auto-reply disabled", zap.String("path", path), zap.Error(err))
		return Table{}
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		logger.Warn("Invalid JSON in keyword rule file, comment auto-reply disabled", zap.String("path", path), zap.Error(err))
		return Table{}
	}

	logger.Info("Keyword rules loaded", zap.String("path", path), zap.Int("count", len(table)))
	return table
}

// Resolve picks the rule for a comment. A media-specific rule wins by media
// identity alone, without checking its own keyword list against the comment
// text. Otherwise the default rule's keywords are scanned in order and the
// first case-insensitive substring hit selects it. Callers must still check
// that the selected rule carries a non-empty reply message before sending:
// a media rule with an empty message suppresses the default fallback.
func (t Table) Resolve(mediaID, commentText string) (Rule, bool) {
	if rule, ok := t[mediaID]; ok {
		return rule, true
	}

	defaultRule, ok := t[DefaultKey]
	if !ok {
		return Rule{}, false
	}

	textLower := strings.ToLower(commentText)
	for _, keyword := range defaultRule.Keywords {
		if strings.Contains(textLower, strings.ToLower(keyword)) {
			return defaultRule, true
		}
	}

	return Rule{}, false
}
