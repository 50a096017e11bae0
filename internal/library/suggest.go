package library

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// MaxSuggestDistance bounds how far a typed name may be from a known one
// before no suggestion is made.
const MaxSuggestDistance = 3

// Suggest returns the known name closest to input when input matches none of
// them exactly. Comparison is case-insensitive; ties keep the earlier name.
func Suggest(known []string, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" || len(known) == 0 {
		return "", false
	}
	needle := strings.ToLower(input)
	best, bestDist := "", MaxSuggestDistance+1
	for _, name := range known {
		if name == input {
			return "", false
		}
		d := levenshtein.ComputeDistance(needle, strings.ToLower(name))
		if d < bestDist {
			best, bestDist = name, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
