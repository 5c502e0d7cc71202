package agent

import "github.com/imkonsowa/citiassist/models"

// Prompt is the per-request payload handed to the Invoker. The system
// instruction is not part of it; it belongs to the Invoker.
type Prompt struct {
	Text             string
	Image            *models.Image
	StructuredOutput bool
}

// ComposeChat builds the chat prompt and returns the coordinates it
// injected, if any.
func ComposeChat(message string) (Prompt, *models.LocationContext) {
	text, loc := InjectLocationContext(message)

	return Prompt{Text: text}, loc
}

func ComposeReportIssue(img *models.Image) Prompt {
	return Prompt{
		Text:             ReportIssueInstruction,
		Image:            img,
		StructuredOutput: true,
	}
}

func ComposeAnalyzeDocument(img *models.Image) Prompt {
	return Prompt{
		Text:  AnalyzeDocumentInstruction,
		Image: img,
	}
}
