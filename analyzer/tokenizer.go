// Package analyzer turns raw field text into normalized token streams.
// Tokenization never fails: unknown analyzer names degrade to Standard,
// and non-text input yields an empty stream.
package analyzer

import (
	"net/url"
	"regexp"
	"strings"
)

// Analyzer names one of the built-in tokenization strategies.
type Analyzer string

const (
	Standard   Analyzer = "standard"
	Simple     Analyzer = "simple"
	Whitespace Analyzer = "whitespace"
	Keyword    Analyzer = "keyword"
	Pattern    Analyzer = "pattern"
	Email      Analyzer = "email"
	URL        Analyzer = "url"
	Phone      Analyzer = "phone"
	Custom     Analyzer = "custom"
)

// Stemmer is the pluggable transform applied after tokenization, per
// spec.md's framing of stemming as an external collaborator. A nil
// Stemmer is a no-op.
type Stemmer interface {
	Stem(term string) string
}

var (
	reContraction  = regexp.MustCompile(`'\w*`)
	reNonWordKeep  = regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)
	reDotDashRun   = regexp.MustCompile(`[.\-]+`)
	reWhitespace   = regexp.MustCompile(`\s+`)
	reSimpleStrip  = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	rePatternToken = regexp.MustCompile(`\b[\w'-]+\b`)
	reEmail        = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	reURL          = regexp.MustCompile(`https?://\S+`)
	reDigitRun     = regexp.MustCompile(`\d+`)
)

// Tokenizer tokenizes text according to a named or custom analyzer,
// filtering stopwords through a shared Stopwords set and optionally
// applying a pluggable Stemmer.
type Tokenizer struct {
	stopwords *Stopwords
	stemmer   Stemmer
}

// New creates a Tokenizer backed by sw. A nil sw allocates a fresh
// Stopwords with the default English seed list.
func New(sw *Stopwords) *Tokenizer {
	if sw == nil {
		sw = NewStopwords()
	}
	return &Tokenizer{stopwords: sw}
}

// WithStemmer attaches a pluggable stemming transform, returning the
// tokenizer for chaining.
func (t *Tokenizer) WithStemmer(s Stemmer) *Tokenizer {
	t.stemmer = s
	return t
}

// Stopwords returns the tokenizer's underlying stopword set.
func (t *Tokenizer) Stopwords() *Stopwords { return t.stopwords }

// CustomConfig configures the "custom" analyzer.
type CustomConfig struct {
	Lowercase           bool
	RemoveStopwords      bool
	MinLength            int
	MaxLength            int
	PreserveHyphens      bool
	PreserveApostrophes  bool
	CustomPattern        *regexp.Regexp
}

// Tokenize converts text into an ordered token stream using the named
// analyzer. Non-string callers should pass "" (handled as empty input).
// An unrecognized analyzer name degrades to Standard.
func (t *Tokenizer) Tokenize(text string, a Analyzer) []string {
	if text == "" {
		return nil
	}
	switch a {
	case Standard:
		return t.tokenizeStandard(text)
	case Simple:
		return t.tokenizeSimple(text)
	case Whitespace:
		return t.tokenizeWhitespace(text)
	case Keyword:
		return t.tokenizeKeyword(text)
	case Pattern:
		return t.tokenizePattern(text)
	case Email:
		return t.tokenizeEmail(text)
	case URL:
		return t.tokenizeURL(text)
	case Phone:
		return t.tokenizePhone(text)
	default:
		return t.tokenizeStandard(text)
	}
}

func (t *Tokenizer) applyStem(tok string) string {
	if t.stemmer == nil || tok == "" {
		return tok
	}
	return t.stemmer.Stem(tok)
}

func (t *Tokenizer) tokenizeStandard(text string) []string {
	s := strings.ToLower(text)
	s = reContraction.ReplaceAllString(s, "")
	s = reNonWordKeep.ReplaceAllString(s, " ")
	s = reDotDashRun.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	fields := strings.Split(s, " ")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || len(f) < 2 {
			continue
		}
		if t.stopwords.Contains(f) {
			continue
		}
		out = append(out, t.applyStem(f))
	}
	return out
}

func (t *Tokenizer) tokenizeSimple(text string) []string {
	s := strings.ToLower(text)
	s = reSimpleStrip.ReplaceAllString(s, "")
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || t.stopwords.Contains(f) {
			continue
		}
		out = append(out, t.applyStem(f))
	}
	return out
}

func (t *Tokenizer) tokenizeWhitespace(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t.stopwords.Contains(strings.ToLower(f)) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (t *Tokenizer) tokenizeKeyword(text string) []string {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	return []string{s}
}

func (t *Tokenizer) tokenizePattern(text string) []string {
	matches := rePatternToken.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		lower := strings.ToLower(m)
		if len(lower) < 2 || t.stopwords.Contains(lower) {
			continue
		}
		out = append(out, t.applyStem(lower))
	}
	return out
}

func (t *Tokenizer) tokenizeEmail(text string) []string {
	matches := reEmail.FindAllString(text, -1)
	var out []string
	seen := make(map[string]struct{})
	emit := func(tok string) {
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, m := range matches {
		lower := strings.ToLower(m)
		at := strings.LastIndex(lower, "@")
		if at < 0 {
			continue
		}
		local, domain := lower[:at], lower[at+1:]
		emit(local)
		emit(domain)
		for _, label := range strings.Split(domain, ".") {
			if len(label) >= 2 {
				emit(label)
			}
		}
	}
	return out
}

func (t *Tokenizer) tokenizeURL(text string) []string {
	matches := reURL.FindAllString(text, -1)
	var out []string
	seen := make(map[string]struct{})
	emit := func(tok string) {
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, m := range matches {
		u, err := url.Parse(m)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		emit(host)
		for _, label := range strings.Split(host, ".") {
			if len(label) >= 2 {
				emit(label)
			}
		}
		for _, seg := range strings.Split(u.EscapedPath(), "/") {
			seg = strings.ToLower(seg)
			if len(seg) >= 2 {
				emit(seg)
			}
		}
	}
	return out
}

func (t *Tokenizer) tokenizePhone(text string) []string {
	runs := reDigitRun.FindAllString(text, -1)
	var out []string
	seen := make(map[string]struct{})
	emit := func(tok string) {
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	var allDigits strings.Builder
	for _, run := range runs {
		allDigits.WriteString(run)
		emit(run)
		if len(run) >= 10 {
			emit(run[:3])
		}
		for i := 0; i+3 <= len(run); i++ {
			emit(run[i : i+3])
		}
	}
	if allDigits.Len() > 0 {
		emit(allDigits.String())
	}
	return out
}

// TokenizeCustom tokenizes text using an explicit CustomConfig, the
// realization of the "custom" analyzer's recognized options.
func (t *Tokenizer) TokenizeCustom(text string, cfg CustomConfig) []string {
	if text == "" {
		return nil
	}
	s := text
	if cfg.Lowercase {
		s = strings.ToLower(s)
	}

	pattern := cfg.CustomPattern
	if pattern == nil {
		keep := `\p{L}\p{N}_`
		if cfg.PreserveHyphens {
			keep += `\-`
		}
		if cfg.PreserveApostrophes {
			keep += `'`
		}
		pattern = regexp.MustCompile(`[` + keep + `]+`)
	}

	matches := pattern.FindAllString(s, -1)
	minLen := cfg.MinLength
	if minLen <= 0 {
		minLen = 1
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) < minLen {
			continue
		}
		if cfg.MaxLength > 0 && len(m) > cfg.MaxLength {
			continue
		}
		if cfg.RemoveStopwords && t.stopwords.Contains(strings.ToLower(m)) {
			continue
		}
		out = append(out, t.applyStem(m))
	}
	return out
}
