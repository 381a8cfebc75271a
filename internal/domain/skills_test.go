package domain

import "testing"

func TestSkillPattern(t *testing.T) {
	if got := SkillPattern(nil); got != "" {
		t.Fatalf("SkillPattern(nil) = %q, want empty", got)
	}
	if got := SkillPattern([]string{" ", ""}); got != "" {
		t.Fatalf("SkillPattern(blank) = %q, want empty", got)
	}
	if got := SkillPattern([]string{"React", "c++"}); got != `React|c\+\+` {
		t.Fatalf("SkillPattern = %q", got)
	}
}

func TestHasMatchingSkill(t *testing.T) {
	tests := []struct {
		name    string
		related []string
		skills  []string
		want    bool
	}{
		{name: "case insensitive", related: []string{"networking"}, skills: []string{"Networking"}, want: true},
		{name: "substring", related: []string{"go"}, skills: []string{"MongoDB"}, want: true},
		{name: "no overlap", related: []string{"vpn"}, skills: []string{"react", "css"}, want: false},
		{name: "no related skills matches any skill", related: nil, skills: []string{"react"}, want: true},
		{name: "no related skills needs a skill", related: nil, skills: nil, want: false},
		{name: "no moderator skills", related: []string{"react"}, skills: nil, want: false},
		{name: "metacharacters are literal", related: []string{"c++"}, skills: []string{"cpp"}, want: false},
	}
	if HasMatchingSkill(nil, []string{"react"}) {
		t.Fatal("nil matcher should match nothing")
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasMatchingSkill(SkillMatcher(tc.related), tc.skills); got != tc.want {
				t.Fatalf("HasMatchingSkill = %v, want %v", got, tc.want)
			}
		})
	}
}
