package main

import (
	"testing"
	"time"

	"github.com/lmartin/citegraph/internal/citation"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this one is definitely too long", 10, "this on..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatAuthors(t *testing.T) {
	authors := []citation.Author{
		{First: "Ada", Last: "Lovelace"},
		{Last: "Babbage"},
	}
	if got, want := formatAuthors(authors), "Ada Lovelace, Babbage"; got != want {
		t.Errorf("formatAuthors() = %q, want %q", got, want)
	}
}

func TestFormatDate(t *testing.T) {
	if got := formatDate(nil); got != "-" {
		t.Errorf("formatDate(nil) = %q, want %q", got, "-")
	}
	d := time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)
	if got := formatDate(&d); got != "2019-05-01" {
		t.Errorf("formatDate = %q", got)
	}
}
