package scoring

import (
	"errors"
	"testing"

	"github.com/inquir-search/search-engine/ftserr"
)

func TestNewRejectsNegativeAvgDocLength(t *testing.T) {
	_, err := New(10, -1)
	if !errors.Is(err, ftserr.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestScoreEdgeCases(t *testing.T) {
	s, err := New(10, 5)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name       string
		tf, df, dl int
	}{
		{"tf-zero", 0, 2, 5},
		{"tf-negative", -1, 2, 5},
		{"df-zero", 3, 0, 5},
		{"doclen-zero", 3, 2, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := s.Score(c.tf, c.df, c.dl); got != 0 {
				t.Errorf("expected 0, got %f", got)
			}
		})
	}
}

func TestScoreZeroAvgDocLength(t *testing.T) {
	s, err := New(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Score(3, 2, 5); got != 0 {
		t.Errorf("expected 0 when avgDocLen is 0, got %f", got)
	}
}

func TestScoreZeroTotalDocs(t *testing.T) {
	s, err := New(0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Score(3, 2, 5); got != 0 {
		t.Errorf("expected 0 when N is 0, got %f", got)
	}
}

func TestScoreLongerTermFrequencyScoresHigher(t *testing.T) {
	s, err := New(2, 2) // corpus of {A: "word" (len1), B: "word word word" (len3)}
	if err != nil {
		t.Fatal(err)
	}
	scoreA := s.Score(1, 2, 1)
	scoreB := s.Score(3, 2, 3)
	if !(scoreA > 0 && scoreB > 0) {
		t.Fatalf("expected both scores positive, got A=%f B=%f", scoreA, scoreB)
	}
	if !(scoreB > scoreA) {
		t.Errorf("expected B to outscore A, got A=%f B=%f", scoreA, scoreB)
	}
}

func TestScoreEqualForEqualInputs(t *testing.T) {
	s, err := New(5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if s.Score(2, 3, 8) != s.Score(2, 3, 8) {
		t.Error("expected identical inputs to produce identical scores")
	}
}

func TestK1ZeroDegeneratesToIDFModel(t *testing.T) {
	s, err := NewWithParams(10, 5, 0, 0.75)
	if err != nil {
		t.Fatal(err)
	}
	// With k1=0, score = idf * 1, independent of tf.
	a := s.Score(1, 3, 5)
	b := s.Score(50, 3, 5)
	if a != b {
		t.Errorf("expected k1=0 to be independent of tf, got %f vs %f", a, b)
	}
}

func TestBZeroDisablesLengthNormalization(t *testing.T) {
	s, err := NewWithParams(10, 5, 1.2, 0)
	if err != nil {
		t.Fatal(err)
	}
	short := s.Score(2, 3, 1)
	long := s.Score(2, 3, 100)
	if short != long {
		t.Errorf("expected b=0 to ignore document length, got %f vs %f", short, long)
	}
}
