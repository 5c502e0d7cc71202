package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/imkonsowa/citiassist/models"
)

const DefaultTimeout = 45 * time.Second

// IssuePublisher receives every report-issue result that contains a civic
// issue. Implementations must not block the request.
type IssuePublisher interface {
	PublishIssueDraft(ctx context.Context, event models.IssueDraftEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishIssueDraft(context.Context, models.IssueDraftEvent) error {
	return nil
}

type Handler struct {
	invoker   Invoker
	publisher IssuePublisher
	timeout   time.Duration
}

func NewHandler(invoker Invoker, publisher IssuePublisher, timeout time.Duration) (*Handler, error) {
	if invoker == nil {
		return nil, fmt.Errorf("nil invoker")
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Handler{
		invoker:   invoker,
		publisher: publisher,
		timeout:   timeout,
	}, nil
}

func (h *Handler) generate(ctx context.Context, prompt Prompt, options ...CallOption) (*models.ModelReply, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	reply, err := h.invoker.Generate(ctx, prompt, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return reply, nil
}

func (h *Handler) composeChat(message string) (Prompt, error) {
	req := ChatRequest{Message: message}
	if err := req.Validate(); err != nil {
		return Prompt{}, err
	}

	prompt, loc := ComposeChat(message)
	if loc != nil {
		if lat, long, err := loc.Point(); err == nil {
			slog.Debug("detected coordinates", "lat", lat, "long", long)
		}
	}

	return prompt, nil
}

// Chat answers a free-text question. A declined generation yields the
// canned apology rather than an error.
func (h *Handler) Chat(ctx context.Context, message string) (string, error) {
	prompt, err := h.composeChat(message)
	if err != nil {
		return "", err
	}

	reply, err := h.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if !reply.HasContent {
		slog.Warn("response blocked or empty", "task", "chat", "reason", reply.BlockReason)

		return ChatDeclinedReply, nil
	}

	return reply.Text, nil
}

// StreamChat runs the chat pipeline with streaming enabled. The channel
// yields chat chunks and is terminated by a result carrying io.EOF.
func (h *Handler) StreamChat(ctx context.Context, message string) chan *ProcessingResult {
	resultChan := make(chan *ProcessingResult)

	go func() {
		defer close(resultChan)

		send := func(result *ProcessingResult) bool {
			select {
			case resultChan <- result:
				return true
			case <-ctx.Done():
				return false
			}
		}

		prompt, err := h.composeChat(message)
		if err != nil {
			send(&ProcessingResult{Err: err})
			return
		}

		streamed := false
		reply, err := h.generate(ctx, prompt, WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			streamed = true

			if !send(&ProcessingResult{Msg: WebSocketsMessage{Type: MessageTypeChat, Data: string(chunk)}}) {
				return ctx.Err()
			}

			return nil
		}))
		if err != nil {
			send(&ProcessingResult{Err: err})
			return
		}

		if !reply.HasContent {
			slog.Warn("response blocked or empty", "task", "chat-stream", "reason", reply.BlockReason)

			if !streamed && !send(&ProcessingResult{Msg: WebSocketsMessage{Type: MessageTypeChat, Data: ChatDeclinedReply}}) {
				return
			}
		}

		send(&ProcessingResult{Err: io.EOF})
	}()

	return resultChan
}

// ReportIssue drafts a complaint for the civic issue shown in the image.
func (h *Handler) ReportIssue(ctx context.Context, req *models.ImageRequest) (*models.IssueReport, error) {
	img, err := DecodeImage(req)
	if err != nil {
		return nil, err
	}

	reply, err := h.generate(ctx, ComposeReportIssue(img))
	if err != nil {
		return nil, err
	}

	if !reply.HasContent {
		slog.Warn("response blocked or empty", "task", "report-issue", "reason", reply.BlockReason)

		return &models.IssueReport{Response: IssueDeclinedReply}, nil
	}

	report, ok := DecodeIssueReport(reply.Text)
	if !ok {
		slog.Warn("failed to decode JSON from model", "filename", req.Filename)

		return report, nil
	}

	if report.Detected() {
		if err := h.publisher.PublishIssueDraft(ctx, models.NewIssueDraftEvent(report, req.Filename)); err != nil {
			slog.Warn("failed to publish issue draft", "error", err)
		}
	}

	return report, nil
}

// AnalyzeDocument explains how to fill out the form shown in the image.
func (h *Handler) AnalyzeDocument(ctx context.Context, req *models.ImageRequest) (string, error) {
	img, err := DecodeImage(req)
	if err != nil {
		return "", err
	}

	reply, err := h.generate(ctx, ComposeAnalyzeDocument(img))
	if err != nil {
		return "", err
	}

	if !reply.HasContent {
		slog.Warn("response blocked or empty", "task", "analyze-document", "reason", reply.BlockReason)

		return DocumentDeclinedReply, nil
	}

	return reply.Text, nil
}
