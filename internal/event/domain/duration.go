package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Event durations arrive as free text typed by organizers ("2 horas",
// "1:30", "90m", "1h 30m", bare "2" meaning hours). Parsing is forgiving:
// anything unintelligible counts as zero minutes so an event without a
// usable duration expires at its start instant.

var (
	clockPattern   = regexp.MustCompile(`^(\d{1,3}):([0-5]?\d)$`)
	hourMinPattern = regexp.MustCompile(`^(\d{1,3})\s*h\s*(\d{1,2})$`)
	hoursPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*h(?:rs?|oras?)?\b`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*m(?:ins?|inutos?)?\b`)
	barePattern    = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

// ParseDurationMinutes converts a free-text duration into whole minutes.
// Results are never negative; empty or unparsable input yields zero.
func ParseDurationMinutes(raw string) int {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return 0
	}

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		return clampMinutes(hours*60 + minutes)
	}

	if m := hourMinPattern.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		return clampMinutes(hours*60 + minutes)
	}

	total := 0
	matched := false
	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		hours, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil {
			total += int(math.Round(hours * 60))
			matched = true
		}
	}
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		total += minutes
		matched = true
	}
	if matched {
		return clampMinutes(total)
	}

	// A bare number is read as hours.
	if barePattern.MatchString(text) {
		hours, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
		if err == nil {
			return clampMinutes(int(math.Round(hours * 60)))
		}
	}

	return 0
}

// ParseDurationHours is the display-oriented variant used by listing views.
func ParseDurationHours(raw string) float64 {
	return float64(ParseDurationMinutes(raw)) / 60
}

func clampMinutes(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
