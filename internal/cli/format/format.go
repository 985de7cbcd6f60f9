// Package format renders API values the way the portal shows them.
package format

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Placeholder is shown for missing dates
const Placeholder = "—"

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Date formats t as "05 de marzo de 2025"
func Date(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return fmt.Sprintf("%02d de %s de %d", t.Day(), months[t.Month()-1], t.Year())
}

// ShortDate formats t as "05/03/2025"
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format("02/01/2006")
}

// DatePtr is Date for optional timestamps
func DatePtr(t *time.Time) string {
	if t == nil {
		return Placeholder
	}
	return Date(*t)
}

// FileSize renders a byte count as B, KB or MB with one decimal. Zero is blank.
func FileSize(bytes int64) string {
	switch {
	case bytes <= 0:
		return ""
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}

// Truncate cuts text to max characters and appends "..."
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}
