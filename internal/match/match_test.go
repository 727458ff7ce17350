package match

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Brain Power!!", "brain power"},
		{"  KING   of  Performai  ", "king of performai"},
		{"don't(stop)", "don t stop"},
		{"青春コンプレックス", "青春コンプレックス"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTextExactAndCandidates(t *testing.T) {
	if !Text("Brain Power", "Brain Power") {
		t.Error("exact title should match")
	}
	if !Text("seishun complex", "青春コンプレックス", "seishun complex") {
		t.Error("romaji candidate should match")
	}
	if Text("", "Brain Power") {
		t.Error("empty guess must never match")
	}
	if Text("anything", "", "") {
		t.Error("empty candidates must be skipped, not matched")
	}
}

func TestTextSubstring(t *testing.T) {
	if !Text("journey of the brave", "the great journey of the brave") {
		t.Error("guess contained in candidate should match")
	}
	if !Text("the great journey of the brave deluxe", "the great journey of the brave") {
		t.Error("candidate contained in guess should match")
	}
}

func TestTextLengthFloor(t *testing.T) {
	// 16-rune candidate requires at least max(4, 16*35%)=5 runes.
	if Text("bril", "brilliant blooms") {
		t.Error("4-rune guess against 16-rune candidate must be rejected")
	}
	// 9-rune candidate requires at least 3 runes.
	if Text("青春", "青春コンプレックス") {
		t.Error("2-rune guess against 9-rune candidate must be rejected")
	}
	if !Text("青春コンプ", "青春コンプレックス") {
		t.Error("5-rune substring of 9-rune candidate should match")
	}
}

func TestTextFuzzy(t *testing.T) {
	// One edit on a 9-rune candidate: ratio 8/9 clears the 0.80 bar.
	if !Text("tsunagile", "tsunagite") {
		t.Error("single-edit typo should match")
	}
	if Text("xyzabc", "tsunagite") {
		t.Error("unrelated guess must not match")
	}
}

func TestTextPrefixRule(t *testing.T) {
	cand := "the great journey of the brave"
	if !Text("the graet journey", cand) {
		t.Error("near-exact prefix of a long candidate should match")
	}
	if Text("the xqzwv", cand) {
		t.Error("short dissimilar prefix must not match")
	}
}

func TestLevel(t *testing.T) {
	cases := []struct {
		guess string
		level float64
		want  bool
	}{
		{"13.7", 13.7, true},
		{"13,7", 13.7, true},
		{" 13.7 ", 13.7, true},
		{"13.7+", 13.7, true},
		{"13", 13.0, true},
		{"13.6", 13.7, false},
		{"13.8", 13.7, false},
		{"abc", 13.7, false},
		{"", 13.7, false},
		{"+", 13.7, false},
	}
	for _, c := range cases {
		if got := Level(c.guess, c.level); got != c.want {
			t.Errorf("Level(%q, %v) = %v, want %v", c.guess, c.level, got, c.want)
		}
	}
}
