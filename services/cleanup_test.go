package services

import (
	"strings"
	"testing"

	"icecat-sync/models"
)

func TestFixText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Intel&reg; Core&trade; i7", "Intel® Core™ i7"},
		{"Geh&auml;use", "Gehäuse"},
		{"GrÃ¶ÃŸe", "Größe"},
		{"  plain text  ", "plain text"},
		{"", ""},
	}

	for _, tt := range tests {
		got := FixText(tt.in)
		if got != tt.want {
			t.Errorf("FixText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", TitleMaxLen+50)

	tests := []struct {
		in      string
		max     int
		wantLen int
	}{
		{long, TitleMaxLen, TitleMaxLen},
		{"short", TitleMaxLen, 5},
		{strings.Repeat("x", TitleMaxLen), TitleMaxLen, TitleMaxLen},
		{"", TitleMaxLen, 0},
	}

	for _, tt := range tests {
		got := Truncate(tt.in, tt.max)
		if len([]rune(got)) != tt.wantLen {
			t.Errorf("Truncate(len %d, %d) has length %d; want %d",
				len([]rune(tt.in)), tt.max, len([]rune(got)), tt.wantLen)
		}
	}
}

func TestTruncateKeepsMultibyteRunesIntact(t *testing.T) {
	in := strings.Repeat("ü", 300)
	got := Truncate(in, TitleMaxLen)
	if len([]rune(got)) != TitleMaxLen {
		t.Errorf("expected %d runes, got %d", TitleMaxLen, len([]rune(got)))
	}
	if strings.ContainsRune(got, '�') {
		t.Error("truncation split a multibyte rune")
	}
}

func TestInferDatatype(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Y", models.DatatypeFlag},
		{"N", models.DatatypeFlag},
		{"15.6", models.DatatypeNumeric},
		{"-3", models.DatatypeNumeric},
		{"0", models.DatatypeNumeric},
		{"1920 x 1080", models.DatatypeTextual},
		{"Yes", models.DatatypeTextual},
		{".", models.DatatypeTextual},
		{"DDR4", models.DatatypeTextual},
	}

	for _, tt := range tests {
		got := InferDatatype(tt.raw)
		if got != tt.want {
			t.Errorf("InferDatatype(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}
