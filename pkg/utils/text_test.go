package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestShorten(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"fits", "Drink plenty of fluids", 150, "Drink plenty of fluids"},
		{"exact length", "abcde", 5, "abcde"},
		{"word boundary", "Drink plenty of fluids and rest", 20, "Drink plenty of..."},
		{"no space in cut", "Supercalifragilistic", 5, "Super..."},
		{"multibyte", "café crème brûlée", 8, "café..."},
		{"zero limit", "unchanged", 0, "unchanged"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Shorten(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Shorten(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestShorten_lengthBound(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor ", 30)
	for n := 1; n < 200; n += 7 {
		got := Shorten(text, n)
		if utf8.RuneCountInString(got) > n+3 {
			t.Errorf("Shorten(_, %d) length %d exceeds bound", n, utf8.RuneCountInString(got))
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("Shorten(_, %d) = %q, missing ellipsis", n, got)
		}
	}
}
