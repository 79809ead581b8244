package gallery

import "testing"

func TestIdentityName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"alice.jpg", "alice"},
		{"Jan Novák.JPEG", "Jan Novák"},
		{"/data/people/bob.png", "bob"},
		{"C:\\faces\\carol.jpg", "carol"},
		{"dotted.name.png", "dotted.name"},
		{"noext", "noext"},
		// decomposed "á" (a + combining acute) is normalized to the composed form
		{"Jan Nova\u0301k.jpg", "Jan Novák"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IdentityName(tt.input); got != tt.expected {
				t.Errorf("IdentityName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"alice.jpg", true},
		{"alice.JPG", true},
		{"bob.jpeg", true},
		{"bob.JpEg", true},
		{"carol.png", true},
		{"dave.gif", false},
		{"notes.txt", false},
		{"jpg", false},
		{".jpg", false},
		{".hidden.jpg", false},
		{"._alice.jpg", false},
		{"/data/.trash/bob.jpg", true},
		{"archive.jpg.zip", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsCandidate(tt.filename, nil); got != tt.expected {
				t.Errorf("IsCandidate(%q) = %v, want %v", tt.filename, got, tt.expected)
			}
		})
	}

	if !IsCandidate("eve.webp", []string{".webp"}) {
		t.Error("configured extension should be accepted")
	}
	if IsCandidate("eve.jpg", []string{".webp"}) {
		t.Error("configured extensions replace the defaults")
	}
}
