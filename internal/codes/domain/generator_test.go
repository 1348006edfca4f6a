package domain

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"

	"predpraznik_backend/platform/apperr"
)

var formatPattern = regexp.MustCompile(`^[A-Z0-9]+-[23456789ABCDEFGHJKMNPQRSTUVWXYZ]{4}$`)

func TestGenerateRepeatedCallsNeverCollide(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 11))
	existing := map[string]struct{}{}
	union := map[string]struct{}{}

	for call := 0; call < 20; call++ {
		codes, err := Generate("GEO", 50, existing, rnd)
		if err != nil {
			t.Fatalf("call %d: %v", call, err)
		}
		if len(codes) != 50 {
			t.Fatalf("call %d: expected 50 codes, got %d", call, len(codes))
		}
		for _, code := range codes {
			if _, taken := existing[code]; taken {
				t.Fatalf("call %d returned excluded code %s", call, code)
			}
			if _, dup := union[code]; dup {
				t.Fatalf("duplicate code %s across calls", code)
			}
			union[code] = struct{}{}
		}
		for _, code := range codes {
			existing[code] = struct{}{}
		}
	}
}

func TestGenerateFormat(t *testing.T) {
	codes, err := Generate("geo", MaxBatch, nil, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, code := range codes {
		if !formatPattern.MatchString(code) {
			t.Fatalf("code %q has wrong format", code)
		}
		if !strings.HasPrefix(code, "GEO-") {
			t.Fatalf("prefix not normalized: %q", code)
		}
		suffix := code[len("GEO-"):]
		if strings.ContainsAny(suffix, "0O1IL") {
			t.Fatalf("suffix of %q contains a confusable character", code)
		}
		if !ValidCode(code) {
			t.Fatalf("ValidCode rejected generated %q", code)
		}
	}
}

type constantSource struct{}

func (constantSource) IntN(int) int { return 0 }

func TestGenerateShortfallReturnsNoCodes(t *testing.T) {
	codes, err := Generate("GEO", 3, nil, constantSource{})
	if codes != nil {
		t.Fatalf("expected no codes on shortfall, got %v", codes)
	}
	if !apperr.Is(err, apperr.KindShortfall) {
		t.Fatalf("expected shortfall, got %v", err)
	}
	if !apperr.IsRecoverable(err) {
		t.Fatal("shortfall should be recoverable")
	}

	var appErr *apperr.Error
	if !asAppErr(err, &appErr) {
		t.Fatal("expected typed error")
	}
	details, ok := appErr.Details.(Shortfall)
	if !ok || details.Requested != 3 || details.Generated != 1 {
		t.Fatalf("unexpected details %#v", appErr.Details)
	}
}

func TestGenerateShortfallWhenExclusionCoversDraws(t *testing.T) {
	existing := map[string]struct{}{"GEO-2222": {}}
	_, err := Generate("GEO", 1, existing, constantSource{})
	if !apperr.Is(err, apperr.KindShortfall) {
		t.Fatalf("expected shortfall when every draw is excluded, got %v", err)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	cases := []struct {
		prefix string
		count  int
	}{
		{"", 1},
		{"GE-O", 1},
		{"GEO", 0},
		{"GEO", MaxBatch + 1},
	}
	for _, tc := range cases {
		if _, err := Generate(tc.prefix, tc.count, nil, nil); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("Generate(%q, %d): expected validation error, got %v", tc.prefix, tc.count, err)
		}
	}
}

func TestNormalizeCodeAndPrefixOf(t *testing.T) {
	code, err := NormalizeCode(" geo-4k7m ")
	if err != nil || code != "GEO-4K7M" {
		t.Fatalf("got %q, %v", code, err)
	}
	if PrefixOf(code) != "GEO" {
		t.Fatalf("unexpected prefix %q", PrefixOf(code))
	}
	if _, err := NormalizeCode("GEO-4K7O"); err == nil {
		t.Fatal("O is not in the alphabet")
	}
}

func TestDeriveStatus(t *testing.T) {
	clean, onTest := "clean", "on_test"
	if DeriveStatus(nil) != StatusAvailable {
		t.Fatal("no open cycle means available")
	}
	if DeriveStatus(&clean) != StatusPending {
		t.Fatal("clean cycle means pending")
	}
	if DeriveStatus(&onTest) != StatusActive {
		t.Fatal("on_test cycle means active")
	}
}

func asAppErr(err error, target **apperr.Error) bool {
	return errors.As(err, target)
}
