package reply

import (
	"strings"
	"testing"
)

func TestBuildSupportReply(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string // substring the reply must contain
	}{
		{"hot flashes", "I keep getting hot flashes at night", "Hot flashes"},
		{"sleep", "my SLEEP has been terrible", "Sleep disruption"},
		{"mood", "my mood is all over the place", "Mood changes"},
		{"anxiety prefix", "feeling anxious lately", "Mood changes"},
		{"help", "I need some help", "biggest thing"},
		{"default", "something else entirely", "symptom log"},
		{"empty", "", "symptom log"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildSupportReply(tc.input)
			if got == "" {
				t.Fatal("reply must never be empty")
			}
			if !strings.Contains(got, tc.want) {
				t.Fatalf("reply %q does not contain %q", got, tc.want)
			}
		})
	}
}
