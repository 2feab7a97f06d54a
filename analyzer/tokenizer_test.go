package analyzer

import (
	"reflect"
	"testing"
)

func newTestTokenizer() *Tokenizer {
	return New(NewStopwords())
}

func TestTokenizeStandardBoundary(t *testing.T) {
	tok := newTestTokenizer()
	got := tok.Tokenize("Don't worry, be happy!", Standard)
	want := []string{"don", "worry", "happy"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeStandardPossessive(t *testing.T) {
	tok := newTestTokenizer()
	if got := tok.Tokenize("the cat's toy", Standard); !reflect.DeepEqual(got, []string{"cat", "toy"}) {
		t.Fatalf("got %v", got)
	}
	if got := tok.Tokenize("the cats' toys", Standard); !reflect.DeepEqual(got, []string{"cats", "toys"}) {
		t.Fatalf("got %v", got)
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	tok := newTestTokenizer()
	for _, a := range []Analyzer{Standard, Simple, Whitespace, Keyword, Pattern, Email, URL, Phone} {
		if got := tok.Tokenize("", a); got != nil {
			t.Errorf("analyzer %s: expected nil for empty input, got %v", a, got)
		}
	}
}

func TestTokenizeUnknownAnalyzerDegradesToStandard(t *testing.T) {
	tok := newTestTokenizer()
	got := tok.Tokenize("Hello World", Analyzer("bogus"))
	want := tok.Tokenize("Hello World", Standard)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeWhitespacePreservesCase(t *testing.T) {
	tok := newTestTokenizer()
	got := tok.Tokenize("Hello, World!", Whitespace)
	want := []string{"Hello,", "World!"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeKeyword(t *testing.T) {
	tok := newTestTokenizer()
	if got := tok.Tokenize("  New York  ", Keyword); !reflect.DeepEqual(got, []string{"New York"}) {
		t.Fatalf("got %v", got)
	}
	if got := tok.Tokenize("   ", Keyword); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestTokenizeEmail(t *testing.T) {
	tok := newTestTokenizer()
	got := tok.Tokenize("contact Jane.Doe@Example.com now", Email)
	want := []string{"jane.doe", "example.com", "example", "com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeURL(t *testing.T) {
	tok := newTestTokenizer()
	got := tok.Tokenize("see https://Blog.Example.com/posts/hello-world", URL)
	want := []string{"blog.example.com", "blog", "example", "com", "posts", "hello-world"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizePhone(t *testing.T) {
	tok := newTestTokenizer()
	got := tok.Tokenize("call 5551234567 now", Phone)
	if len(got) == 0 {
		t.Fatal("expected non-empty tokens")
	}
	if got[0] != "5551234567" {
		t.Errorf("expected full run first, got %v", got)
	}
	if got[1] != "555" {
		t.Errorf("expected 3-digit prefix second, got %v", got)
	}
}

func TestTokenizePattern(t *testing.T) {
	tok := newTestTokenizer()
	got := tok.Tokenize("rock-n-roll isn't dead", Pattern)
	for _, tk := range got {
		if len(tk) < 2 {
			t.Errorf("unexpected single-char token %q", tk)
		}
	}
}

func TestTokenizeCustom(t *testing.T) {
	tok := newTestTokenizer()
	cfg := CustomConfig{Lowercase: true, MinLength: 3, PreserveHyphens: true}
	got := tok.TokenizeCustom("Go-Lang is fun", cfg)
	want := []string{"go-lang", "fun"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestStopwordsAutoDetect(t *testing.T) {
	sw := NewStopwords()
	sw.SetThreshold(3)
	added := sw.AutoDetect(map[string]int{"widget": 5, "gadget": 1})
	if len(added) != 1 || added[0] != "widget" {
		t.Fatalf("got %v", added)
	}
	if !sw.Contains("widget") {
		t.Error("expected widget to be a stopword")
	}
}

func TestTokenizeNoStopwordsOrShortTokens(t *testing.T) {
	tok := newTestTokenizer()
	for _, a := range []Analyzer{Standard, Simple, Pattern} {
		toks := tok.Tokenize("a an at I be the wonderful sunshine", a)
		for _, tk := range toks {
			if tok.Stopwords().Contains(tk) {
				t.Errorf("analyzer %s: unexpected stopword token %q", a, tk)
			}
			if len(tk) < 2 {
				t.Errorf("analyzer %s: unexpected short token %q", a, tk)
			}
		}
	}
}
