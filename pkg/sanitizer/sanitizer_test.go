package sanitizer

import "testing"

func TestSanitizeReason(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  deck repair  ", want: "deck repair"},
		{name: "collapse inner whitespace", input: "deck\t\n   repair", want: "deck repair"},
		{name: "control characters", input: "deck\x00 re\x07pair", want: "deck repair"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \t\n ", want: ""},
		{name: "unicode kept", input: " Sauna – réparation ", want: "Sauna – réparation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeReason(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeReason(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizeReason(got); again != got {
				t.Errorf("SanitizeReason is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSanitizeIDs(t *testing.T) {
	got := SanitizeIDs([]string{" cabin-2", "cabin-1", "", "cabin-2 ", "Cabin-1", "   "})
	want := []string{"cabin-2", "cabin-1", "Cabin-1"}

	if len(got) != len(want) {
		t.Fatalf("SanitizeIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SanitizeIDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSanitizeIDs_Nil(t *testing.T) {
	got := SanitizeIDs(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("SanitizeIDs(nil) = %#v, want empty slice", got)
	}
}
