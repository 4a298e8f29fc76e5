package textutil

import "testing"

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"Summer Beach":   "summer_beach",
		"  t9 ":          "t9",
		"../../etc":      "etc",
		"":               "unknown",
		"***":            "unknown",
		"lo-fi_Night_02": "lo-fi_night_02",
	}
	for input, want := range tests {
		if got := SanitizeToken(input); got != want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCleanObjectPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"songs/abc/full.mp3", "songs/abc/full.mp3", true},
		{"/songs//abc/full.mp3/", "songs/abc/full.mp3", true},
		{"songs/../secret", "", false},
		{"./a", "", false},
		{"   ", "", false},
		{"///", "", false},
	}
	for _, tt := range tests {
		got, ok := CleanObjectPath(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("CleanObjectPath(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
