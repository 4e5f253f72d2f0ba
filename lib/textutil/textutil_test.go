package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOnlyNumbers(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "1 234,5 km", expected: "1234.5"},
		{input: "  17. ", expected: "17."},
		{input: "-3,25", expected: "-3.25"},
		{input: "1,2,3", expected: "1.2,3"},
		{input: "km", expected: ""},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, OnlyNumbers(test.input), test.input)
	}
}

func TestTrimPersonName(t *testing.T) {
	require.Equal(t, "Kilometri Kisa", TrimPersonName("\n   Kilometri Kisa\n   kilometrikisatesti\n"))
	require.Equal(t, "Solo", TrimPersonName("Solo"))
	require.Equal(t, "", TrimPersonName("   "))
}

func TestCleanTeamName(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "Kesäkuntoilijat (12)", expected: "Kesäkuntoilijat"},
		{input: "Polkijat TOP-10 (40)", expected: "Polkijat"},
		{input: "Team (A) (5)", expected: "Team (A)"},
		{input: "No annotation", expected: ""},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, CleanTeamName(test.input), test.input)
	}
}

func TestParseNumbers(t *testing.T) {
	value, err := ParseNumber("1 024,7 km")
	require.NoError(t, err)
	require.InDelta(t, 1024.7, value, 1e-9)

	_, err = ParseNumber("n/a")
	require.Error(t, err)

	rank, err := ParseInteger("\n 12.\n")
	require.NoError(t, err)
	require.Equal(t, 12, rank)

	rank, err = ParseInteger(" 12 ")
	require.NoError(t, err)
	require.Equal(t, 12, rank)
}

func TestParseLeadingFloat(t *testing.T) {
	value, err := ParseLeadingFloat(" 100.5")
	require.NoError(t, err)
	require.Equal(t, 100.5, value)

	value, err = ParseLeadingFloat("12,5")
	require.NoError(t, err)
	require.Equal(t, float64(12), value)

	value, err = ParseLeadingFloat("0")
	require.NoError(t, err)
	require.Equal(t, float64(0), value)

	_, err = ParseLeadingFloat("abc")
	require.Error(t, err)
}

func TestParseLeadingInt(t *testing.T) {
	value, err := ParseLeadingInt(" 7 days")
	require.NoError(t, err)
	require.Equal(t, 7, value)

	value, err = ParseLeadingInt("-3.9")
	require.NoError(t, err)
	require.Equal(t, -3, value)

	_, err = ParseLeadingInt(".5")
	require.Error(t, err)
}

func TestClosestMatch(t *testing.T) {
	contests := []string{
		"Kilometrikisa 2021",
		"Talvikilometrikisa 2021",
		"Kilometrikisa 2020",
	}

	idx, score := ClosestMatch("kilometrikisa   2021", contests)
	require.Equal(t, 0, idx)
	require.Equal(t, float64(1), score)

	idx, score = ClosestMatch("talvikilometrikisa 21", contests)
	require.Equal(t, 1, idx)
	require.Greater(t, score, 0.8)

	idx, _ = ClosestMatch("anything", nil)
	require.Equal(t, -1, idx)
}
