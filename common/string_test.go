package common

import "testing"

func TestWrapString(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short", "hello world", 20, "hello world"},
		{"split at space", "hello wide world", 10, "hello wide\nworld"},
		{"no space", "abcdefghij", 4, "abcd\nefgh\nij"},
		{"keeps paragraphs", "one two\n\nthree four", 7, "one two\n\nthree\nfour"},
		{"multibyte", "żółw żółw", 4, "żółw\nżółw"},
		{"disabled", "hello world", 0, "hello world"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WrapString(tc.in, tc.width); got != tc.want {
				t.Errorf("WrapString(%q, %d) = %q, expected %q", tc.in, tc.width, got, tc.want)
			}
		})
	}
}
