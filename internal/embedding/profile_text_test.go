package embedding

import (
	"strings"
	"testing"

	"github.com/pathwise/pathwise-backend/internal/domain"
)

func TestBuildProfileTextEmptyProfile(t *testing.T) {
	cases := []struct {
		name    string
		profile *domain.UserProfile
	}{
		{name: "nil_profile", profile: nil},
		{name: "zero_profile", profile: &domain.UserProfile{}},
		{name: "whitespace_only_fields", profile: &domain.UserProfile{
			LearningStyle:       "  ",
			PreferredDifficulty: "\t",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildProfileText(tc.profile); got != "" {
				t.Fatalf("BuildProfileText=%q, want empty", got)
			}
		})
	}
}

func TestBuildProfileTextInterestsSortedByPriority(t *testing.T) {
	p := &domain.UserProfile{
		Interests: []domain.Interest{
			{Topic: "sql", Proficiency: "beginner", Priority: 3},
			{Topic: "go", Proficiency: "advanced", Priority: 9},
			{Topic: "docker", Proficiency: "intermediate", Priority: 6},
		},
	}
	text := BuildProfileText(p)
	if !strings.HasPrefix(text, "Interests: go (advanced level, priority 9), docker (intermediate level, priority 6), sql (beginner level, priority 3)") {
		t.Fatalf("interests not sorted by descending priority: %q", text)
	}
}

func TestBuildProfileTextAllSections(t *testing.T) {
	p := &domain.UserProfile{
		Interests:             []domain.Interest{{Topic: "go", Proficiency: "advanced", Priority: 8}},
		Goals:                 []domain.LearningGoal{{Title: "Ship a service", Description: "Build a production API"}},
		PreferredContentTypes: []string{"video", "article"},
		LearningStyle:         "visual",
		PreferredDifficulty:   "intermediate",
	}
	text := BuildProfileText(p)

	lines := strings.Split(text, "\n")
	wantPrefixes := []string{
		"Interests:",
		"Learning goals:",
		"Preferred content types:",
		"Learning style:",
		"Preferred difficulty:",
	}
	if len(lines) != len(wantPrefixes) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(wantPrefixes), text)
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Fatalf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
	if !strings.Contains(text, "Ship a service: Build a production API") {
		t.Fatalf("goal rendering wrong: %q", text)
	}
}
