package domain

import (
	"regexp"
	"strings"
)

// SkillPattern builds the case-insensitive alternation used to match moderator skills
// against a ticket's related skills. Each related skill is matched as a literal substring.
// It returns "" when there are no related skills; the empty pattern matches any skill, so a
// ticket without related skills goes to the first moderator that lists at least one skill.
func SkillPattern(related []string) string {
	parts := make([]string, 0, len(related))
	for _, skill := range related {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(skill))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "|")
}

// SkillMatcher compiles SkillPattern for in-process matching.
func SkillMatcher(related []string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + SkillPattern(related))
}

// HasMatchingSkill reports whether any of skills matches the compiled matcher. A nil matcher
// matches nothing.
// Note "go" matches "mongo": the match is by substring, not by whole skill.
func HasMatchingSkill(matcher *regexp.Regexp, skills []string) bool {
	if matcher == nil {
		return false
	}
	for _, skill := range skills {
		if matcher.MatchString(skill) {
			return true
		}
	}
	return false
}
