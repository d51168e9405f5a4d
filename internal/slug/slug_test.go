package slug

import (
	"regexp"
	"testing"
)

func TestMake(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"React Hooks Guide", "react-hooks-guide"},
		{"  Hello,   World!  ", "hello-world"},
		{"already-a-slug", "already-a-slug"},
		{"--edge--", "edge"},
		{"C++ & Go_Lang", "c-go-lang"},
		{"Ünïcode Tëst", "n-code-t-st"},
		{"v1.2.3", "v1-2-3"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Make(tc.in); got != tc.want {
			t.Errorf("Make(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMake_ShapeInvariant(t *testing.T) {
	valid := regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)
	inputs := []string{
		"a", "-a-", "A B C", "a--b", "\t\nx\ty\n", "日本語 title", "__init__", "x---y", "123 456",
		"Trailing punctuation...", "#Heading#", "emoji 🚀 rocket",
	}
	for _, in := range inputs {
		got := Make(in)
		if !valid.MatchString(got) {
			t.Errorf("Make(%q) = %q violates slug shape", in, got)
		}
		if Make(in) != got {
			t.Errorf("Make(%q) not deterministic", in)
		}
	}
}

func TestDeduper_Unique(t *testing.T) {
	var d Deduper
	got := []string{
		d.Unique("intro"),
		d.Unique("intro"),
		d.Unique("usage"),
		d.Unique("intro"),
		d.Unique(""),
		d.Unique(""),
	}
	want := []string{"intro", "intro-1", "usage", "intro-2", "section", "section-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Unique #%d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDeduper_SkipsLiteralCollision(t *testing.T) {
	var d Deduper
	if got := d.Unique("step-1"); got != "step-1" {
		t.Fatalf("got %q", got)
	}
	if got := d.Unique("step"); got != "step" {
		t.Fatalf("got %q", got)
	}
	// "step-1" is already taken by a literal heading.
	if got := d.Unique("step"); got != "step-2" {
		t.Errorf("got %q, want step-2", got)
	}
}
