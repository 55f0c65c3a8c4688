package extract

import (
	"regexp"
	"strings"

	"github.com/mapstalk/mapstalk/internal/types"
)

var invisibleRunes = regexp.MustCompile("[\u200B-\u200D\uFEFF]")

// Clean normalizes a raw extracted value: strips zero-width characters,
// trims each line, drops duplicate lines keeping first occurrence, and
// joins the remainder with single spaces. Pure and idempotent; empty
// input yields "".
func Clean(value string) string {
	if value == "" {
		return ""
	}

	value = invisibleRunes.ReplaceAllString(value, "")

	seen := make(map[string]struct{})
	var lines []string
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}

	return strings.TrimSpace(strings.Join(lines, " "))
}

// CleanRecord returns a copy of the record with every field cleaned.
func CleanRecord(r types.BusinessRecord) types.BusinessRecord {
	return types.BusinessRecord{
		Name:         Clean(r.Name),
		BusinessType: Clean(r.BusinessType),
		Address:      Clean(r.Address),
		Phone:        Clean(r.Phone),
		Email:        Clean(r.Email),
		Website:      Clean(r.Website),
	}
}
