package agent

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/imkonsowa/citiassist/models"
)

var errNotAnObject = errors.New("reply is not a JSON object")

// stripCodeFence removes a leading ```json (or bare ```) fence line and a
// trailing ``` fence.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

func parseIssueReport(text string) (*models.IssueReport, error) {
	payload := stripCodeFence(text)
	if !strings.HasPrefix(payload, "{") {
		return nil, errNotAnObject
	}

	var report models.IssueReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// DecodeIssueReport turns the model's raw reply into an IssueReport. A parsed
// object is returned exactly as the model filled it. It never fails:
// unparseable text comes back inside a fallback report with the raw text in
// both body and response.
func DecodeIssueReport(raw string) (*models.IssueReport, bool) {
	report, err := parseIssueReport(raw)
	if err != nil {
		return &models.IssueReport{
			RecipientEmail: "",
			Subject:        FallbackIssueSubject,
			Body:           raw,
			Response:       raw,
		}, false
	}

	return report, true
}
