package export

import (
	"strings"
	"unicode"
)

const (
	maxBaseRunes     = 100
	fallbackBaseName = "investigation"
	extension        = ".docx"
)

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Filename makes a title safe to use as a download filename on any
// filesystem and appends the document extension
func Filename(title string) string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, title)
	base = strings.Trim(base, " .")

	if runes := []rune(base); len(runes) > maxBaseRunes {
		base = strings.TrimRight(string(runes[:maxBaseRunes]), " .")
	}
	if base == "" {
		base = fallbackBaseName
	}

	stem := base
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if reservedNames[strings.ToUpper(strings.TrimSpace(stem))] {
		base = stem + "_" + base[len(stem):]
	}
	return base + extension
}
