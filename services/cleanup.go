package services

import (
	"html"
	"strconv"
	"strings"

	"icecat-sync/models"
)

// TitleMaxLen is the bound textual values are truncated to before storage.
const TitleMaxLen = 252

// EmptyValueSentinel replaces an empty raw value so "empty" stays
// distinguishable from "missing".
const EmptyValueSentinel = "."

// mojibake repairs for UTF-8 text that went through a Latin-1 round trip
// somewhere in the feed's toolchain. The feed has carried these for years.
var mojibakeReplacer = strings.NewReplacer(
	"Ã¤", "ä", "Ã¶", "ö", "Ã¼", "ü",
	"Ã„", "Ä", "Ã–", "Ö", "Ãœ", "Ü",
	"ÃŸ", "ß", "Ã©", "é", "Ã¨", "è",
	"Â®", "®", "Â©", "©", "Â°", "°",
	"Â ", " ",
)

// FixText repairs feed text before storage: HTML entities are unescaped and
// known mojibake sequences replaced. Line breaks inside long descriptions
// are kept as-is.
func FixText(s string) string {
	s = html.UnescapeString(s)
	s = mojibakeReplacer.Replace(s)
	return strings.TrimSpace(s)
}

// Truncate bounds a textual value to max runes; shorter values pass through
// unchanged.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// InferDatatype classifies a raw feed value by shape: the Y/N token set is
// a flag, anything float-parsable is numeric, everything else is textual.
func InferDatatype(raw string) string {
	switch raw {
	case "Y", "N":
		return models.DatatypeFlag
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return models.DatatypeNumeric
	}
	return models.DatatypeTextual
}
