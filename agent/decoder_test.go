package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const potholeJSON = `{
  "recipient_email": "commissioner@ghmc.gov.in",
  "subject": "Pothole near [Location]",
  "body": "I observed a large pothole at [Location] that endangers commuters.",
  "response": "A **pothole** was detected. Your complaint draft is ready."
}`

func TestDecodeIssueReportStripsFences(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"plain", potholeJSON},
		{"json fence", "```json\n" + potholeJSON + "\n```"},
		{"bare fence", "```\n" + potholeJSON + "\n```"},
		{"fence with padding", "  \n```json\n" + potholeJSON + "\n```  \n"},
		{"single line fence", "```json" + potholeJSON + "```"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report, ok := DecodeIssueReport(tc.raw)
			require.True(t, ok)

			assert.Equal(t, "commissioner@ghmc.gov.in", report.RecipientEmail)
			assert.Equal(t, "Pothole near [Location]", report.Subject)
			assert.Contains(t, report.Body, LocationPlaceholder)
			assert.True(t, report.Detected())
		})
	}
}

func TestDecodeIssueReportFallback(t *testing.T) {
	raws := []string{
		"I could not produce JSON, but there is a pothole.",
		`{"recipient_email": "a@b.c", "subject": `,
		"```json\n{broken}\n```",
		`["not", "an", "object"]`,
		"null",
		potholeJSON + " trailing words",
		"",
	}

	for _, raw := range raws {
		report, ok := DecodeIssueReport(raw)
		assert.False(t, ok, raw)

		assert.Equal(t, "", report.RecipientEmail)
		assert.Equal(t, FallbackIssueSubject, report.Subject)
		assert.Equal(t, raw, report.Body)
		assert.Equal(t, raw, report.Response)
	}
}

func TestDecodeIssueReportFallbackBodyDecodesGracefully(t *testing.T) {
	raw := "There is garbage piled up on the street."

	first, ok := DecodeIssueReport(raw)
	require.False(t, ok)

	second, ok := DecodeIssueReport(first.Body)
	require.False(t, ok)
	assert.Equal(t, first, second)
}

func TestDecodeIssueReportNoIssue(t *testing.T) {
	raw := `{"recipient_email": "", "subject": "", "body": "", "response": "No civic issue detected in this image."}`

	report, ok := DecodeIssueReport(raw)
	require.True(t, ok)

	assert.False(t, report.Detected())
	assert.Equal(t, "", report.Body)
	assert.Equal(t, "No civic issue detected in this image.", report.Response)
}

func TestDecodeIssueReportKeepsFieldsAsReturned(t *testing.T) {
	raw := `{"recipient_email": "traffic@cyberabadpolice.gov.in", "subject": "Illegal parking", "body": "A car is parked on the footpath.\n", "response": "Draft ready."}`

	report, ok := DecodeIssueReport(raw)
	require.True(t, ok)

	assert.Equal(t, "A car is parked on the footpath.\n", report.Body)
	assert.Equal(t, "Illegal parking", report.Subject)
}

func TestDecodeIssueReportBodyOnlyCountsAsDetected(t *testing.T) {
	raw := `{"recipient_email": "", "subject": "", "body": "Garbage has not been collected for a week.", "response": "Draft ready."}`

	report, ok := DecodeIssueReport(raw)
	require.True(t, ok)

	assert.True(t, report.Detected())
	assert.Equal(t, "Garbage has not been collected for a week.", report.Body)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, "text", stripCodeFence("  text  "))
}
