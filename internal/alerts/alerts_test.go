package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityExtreme, NormalizeSeverity("Extreme"))
	assert.Equal(t, SeverityMinor, NormalizeSeverity("Minor"))
	assert.Equal(t, SeverityUnknown, NormalizeSeverity("extreme"), "case sensitive by upstream contract")
	assert.Equal(t, SeverityUnknown, NormalizeSeverity(""))
}

func TestDedup(t *testing.T) {
	in := []Alert{
		{Location: "Colombo", Event: "Heavy Rain", Headline: "Red warning for Western Province"},
		{Location: "Gampaha", Event: "Heavy Rain", Headline: "Red warning for Western Province"},
		{Location: "Galle", Event: "Strong Winds", Headline: "Coastal wind advisory"},
	}

	out := Dedup(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "Colombo", out[0].Location, "first occurrence wins")
	assert.Equal(t, "Strong Winds", out[1].Event)
}

func TestSummarize(t *testing.T) {
	in := []Alert{
		{Severity: SeverityExtreme},
		{Severity: SeveritySevere},
		{Severity: SeveritySevere},
		{Severity: SeverityModerate},
		{Severity: SeverityMinor},
		{Severity: SeverityUnknown},
	}

	sum := Summarize(in)
	assert.Equal(t, 1, sum.Extreme)
	assert.Equal(t, 2, sum.Severe)
	assert.Equal(t, 1, sum.Moderate)
	assert.Equal(t, 1, sum.Minor)
	assert.Equal(t, 1, sum.Unknown)
}
