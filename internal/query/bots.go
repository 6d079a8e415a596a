package query

import "regexp"

// builtinBotPatterns covers the bot accounts that show up on nearly every
// GitHub repo's PR activity, applied in addition to any user-configured
// Filter.BotPatterns (spec.md §4.6).
var builtinBotPatterns = []string{
	`^dependabot(\[bot\])?$`,
	`^renovate(\[bot\])?$`,
	`^github-actions(\[bot\])?$`,
	`\[bot\]$`,
}

func compileBotPatterns(extra []string) []*regexp.Regexp {
	all := make([]string, 0, len(builtinBotPatterns)+len(extra))
	all = append(all, builtinBotPatterns...)
	all = append(all, extra...)

	compiled := make([]*regexp.Regexp, 0, len(all))
	for _, pattern := range all {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

func matchesAnyBotPattern(author string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(author) {
			return true
		}
	}
	return false
}
