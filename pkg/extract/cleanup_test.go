package extract

import "testing"

func TestCleanup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "dehyphenation",
			in:   "an exam-\nple of splitting",
			want: "an example of splitting",
		},
		{
			name: "soft break joined",
			in:   "the quick brown\nfox jumps",
			want: "the quick brown fox jumps",
		},
		{
			name: "sentence end keeps break",
			in:   "First sentence.\nSecond sentence.",
			want: "First sentence.\nSecond sentence.",
		},
		{
			name: "heading keeps break",
			in:   "notes about\nChapter Two",
			want: "notes about\nChapter Two",
		},
		{
			name: "horizontal whitespace collapsed",
			in:   "too   many\t\tspaces.",
			want: "too many spaces.",
		},
		{
			name: "blank runs collapsed",
			in:   "para one.\n\n\n\n\npara two.",
			want: "para one.\n\npara two.",
		},
		{
			name: "windows line endings",
			in:   "left.\r\nright.",
			want: "left.\nright.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cleanup(tt.in)
			if got != tt.want {
				t.Fatalf("Cleanup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	inputs := []string{
		"an exam-\nple of text\nthat flows onward.\n\n\nNext paragraph.",
		"Heading\n- bullet one\n- bullet two",
		"already clean text.",
	}
	for _, in := range inputs {
		once := Cleanup(in)
		twice := Cleanup(once)
		if once != twice {
			t.Fatalf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}
