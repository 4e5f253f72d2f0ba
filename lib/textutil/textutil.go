package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

var nonNumeric = regexp.MustCompile(`[^\d.,-]`)

// OnlyNumbers strips everything but digits and the separators '.', ',' and '-'.
// The site renders decimals with a comma, the first one is turned into a dot.
func OnlyNumbers(str string) string {
	str = nonNumeric.ReplaceAllString(str, "")
	return strings.Replace(str, ",", ".", 1)
}

// TrimPersonName returns the display name of a member cell, the cell renders
// the display name and a secondary line as separate text nodes.
func TrimPersonName(name string) string {
	name = strings.TrimSpace(name)
	first, _, _ := strings.Cut(name, "\n")
	return strings.TrimSpace(first)
}

// CleanTeamName drops the " TOP-10" marker and the trailing "(n)" member
// count annotation of a leaderboard team name.
func CleanTeamName(name string) string {
	name = strings.Replace(name, " TOP-10", "", 1)
	idx := strings.LastIndex(name, "(")
	if idx < 0 {
		idx = 0
	}
	return strings.TrimSpace(name[:idx])
}

// ParseNumber reads the leading decimal of a locale formatted cell after
// OnlyNumbers cleanup, "1 024,5 km" is 1024.5.
func ParseNumber(str string) (float64, error) {
	value, err := ParseLeadingFloat(OnlyNumbers(str))
	if err != nil {
		return 0, fmt.Errorf("parse number '%s': %w", str, err)
	}
	return value, nil
}

// ParseInteger reads the leading integer of a cell after OnlyNumbers cleanup,
// "12." is 12.
func ParseInteger(str string) (int, error) {
	value, err := ParseLeadingInt(OnlyNumbers(str))
	if err != nil {
		return 0, fmt.Errorf("parse integer '%s': %w", str, err)
	}
	return value, nil
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// ParseLeadingFloat parses the longest numeric prefix of str, ignoring
// surrounding whitespace and whatever follows the number.
func ParseLeadingFloat(str string) (float64, error) {
	str = strings.TrimSpace(str)
	match := leadingFloat.FindString(str)
	if match == "" {
		return 0, fmt.Errorf("no numeric prefix in '%s'", str)
	}
	return strconv.ParseFloat(match, 64)
}

func ParseLeadingInt(str string) (int, error) {
	str = strings.TrimSpace(str)
	match := leadingInt.FindString(str)
	if match == "" {
		return 0, fmt.Errorf("no integer prefix in '%s'", str)
	}
	return strconv.Atoi(match)
}

// ClosestMatch returns the index of the candidate most similar to name
// (Jaro-Winkler over normalized names) and its similarity, -1 if there are
// no candidates.
func ClosestMatch(name string, candidates []string) (int, float64) {
	name = NormalizeName(name)

	best := -1
	var bestScore float64
	for i, c := range candidates {
		c = NormalizeName(c)
		if c == name {
			return i, 1
		}
		score := matchr.JaroWinkler(name, c, false)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, bestScore
}
