package format

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown(`War & Peace (vol. 1) - 100% [draft]_v2\`, MarkdownV2)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	want := `War & Peace \(vol\. 1\) \- 100% \[draft\]\_v2\\`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if BoldV2("a.b") != `*a\.b*` {
		t.Fatalf("BoldV2 = %q", BoldV2("a.b"))
	}
}

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("snake_case *x* `y` [z]", MarkdownV1)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if want := "snake\\_case \\*x\\* \\`y\\` \\[z]"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unknown version")
	}
}
