package models

import "strings"

// NormalizeTitleYear lowercases and trims the title so that exclusion lookups
// and identity hashing agree on what "the same item" means.
func NormalizeTitleYear(title string, year int) TitleYear {
	return TitleYear{
		Title: strings.ToLower(strings.TrimSpace(title)),
		Year:  year,
	}
}
