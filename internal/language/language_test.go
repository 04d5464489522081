package language_test

import (
	"testing"

	"reelpress/internal/language"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"fr", "French"},
		{"de", "German"},
		{"", "None"},
		{"not a tag!", "not a tag!"},
	}
	for _, tc := range cases {
		if got := language.Describe(tc.code); got != tc.want {
			t.Fatalf("Describe(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
