package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		in      string
		version int
		want    string
	}{
		{"plain text", MarkdownV1, "plain text"},
		{"snake_case *bold*", MarkdownV1, `snake\_case \*bold\*`},
		{"[link]", MarkdownV1, `\[link]`},
		{"1.5 (x)", MarkdownV2, `1\.5 \(x\)`},
	}
	for _, tc := range cases {
		got, err := EscapeMarkdown(tc.in, tc.version)
		if err != nil {
			t.Fatalf("escape %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("escape %q = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestMDEscapesCatalogText(t *testing.T) {
	if got := MD("T_shirt [XL]"); got != `T\_shirt \[XL]` {
		t.Fatalf("MD = %q", got)
	}
}

func TestDeref(t *testing.T) {
	s := "value"
	if got := Deref(&s, "def"); got != "value" {
		t.Fatalf("got %q", got)
	}
	if got := Deref(nil, "def"); got != "def" {
		t.Fatalf("got %q", got)
	}
	if got := Deref[int](nil, 7); got != 7 {
		t.Fatalf("got %d", got)
	}
}
