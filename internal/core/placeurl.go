package core

import (
	"fmt"
	"regexp"
	"strings"
)

var placeURLPattern = regexp.MustCompile(`(?i)roblox\.com/games/(\d+)`)

// ParsePlaceURL extracts the place id from a game page URL.
func ParsePlaceURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty game url", ErrValidation)
	}
	m := placeURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: invalid Roblox URL", ErrValidation)
	}
	return m[1], nil
}
