package utils

import (
	"strings"
)

// NormalizeColor converts various color formats to NetBox format (6-char hex without #)
func NormalizeColor(input string) string {
	input = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(input), "#"))

	for _, c := range input {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return ""
		}
	}

	switch len(input) {
	case 3:
		// "f00" -> "ff0000"
		return string([]byte{
			input[0], input[0],
			input[1], input[1],
			input[2], input[2],
		})
	case 6:
		return input
	}
	return ""
}

var cableColors = map[string]string{
	"cat5e": "2196f3",
	"cat6":  "f44336",
	"cat6a": "ffeb3b",
	"cat7":  "ff9800",
	"dac":   "000000",
	"aoc":   "607d8b",
	"mmf":   "00bcd4",
	"om3":   "00bcd4",
	"om4":   "2196f3",
	"smf":   "9c27b0",
	"os2":   "9c27b0",
	"power": "000000",
}

// CableColor returns the explicit color when it is valid, otherwise the default color
// for the cable type
func CableColor(cableType, explicit string) string {
	if c := NormalizeColor(explicit); c != "" {
		return c
	}
	return cableColors[strings.ToLower(cableType)]
}
