package models

import (
	"strconv"
	"time"
)

type ChatRequest struct {
	Message string `json:"message"`
}

// LocationContext holds the coordinates exactly as the user typed them.
type LocationContext struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Point parses the coordinates as decimal degrees.
func (l LocationContext) Point() (lat, long float64, err error) {
	lat, err = strconv.ParseFloat(l.Latitude, 64)
	if err != nil {
		return 0, 0, err
	}

	long, err = strconv.ParseFloat(l.Longitude, 64)
	if err != nil {
		return 0, 0, err
	}

	return lat, long, nil
}

type ImageRequest struct {
	Data     []byte
	Filename string
}

// Image is an uploaded picture that decoded successfully, ready to be sent
// to the model as a binary part.
type Image struct {
	Data     []byte
	MIMEType string
	Format   string
	Width    int
	Height   int
}

type ModelReply struct {
	HasContent  bool
	Text        string
	BlockReason string
}

type IssueReport struct {
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	Response       string `json:"response"`
}

// Detected reports whether the model found a civic issue in the image.
func (r *IssueReport) Detected() bool {
	return r.RecipientEmail != "" || r.Subject != "" || r.Body != ""
}

type IssueDraftEvent struct {
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Filename       string    `json:"filename"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewIssueDraftEvent(report *IssueReport, filename string) IssueDraftEvent {
	return IssueDraftEvent{
		RecipientEmail: report.RecipientEmail,
		Subject:        report.Subject,
		Body:           report.Body,
		Filename:       filename,
		CreatedAt:      time.Now().UTC(),
	}
}
