package agent

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/imkonsowa/citiassist/models"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	mu      sync.Mutex
	prompts []Prompt
	options []CallOptions

	reply  *models.ModelReply
	err    error
	chunks []string
	wait   bool
}

func (f *fakeInvoker) Generate(ctx context.Context, prompt Prompt, options ...CallOption) (*models.ModelReply, error) {
	opts := CallOptions{StructuredOutput: prompt.StructuredOutput}
	for _, opt := range options {
		opt(&opts)
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, opts)
	f.mu.Unlock()

	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}

	if opts.StreamingFunc != nil {
		for _, chunk := range f.chunks {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
	}

	return f.reply, nil
}

func (f *fakeInvoker) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.prompts)
}

func (f *fakeInvoker) lastPrompt(t *testing.T) Prompt {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.prompts, "model was never invoked")

	return f.prompts[len(f.prompts)-1]
}

func (f *fakeInvoker) lastOptions(t *testing.T) CallOptions {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.options, "model was never invoked")

	return f.options[len(f.options)-1]
}

func textReply(text string) *models.ModelReply {
	return &models.ModelReply{HasContent: true, Text: text}
}

func declinedReply() *models.ModelReply {
	return &models.ModelReply{BlockReason: "FinishReasonSafety"}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.IssueDraftEvent
}

func (p *fakePublisher) PublishIssueDraft(_ context.Context, event models.IssueDraftEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *fakePublisher) published() []models.IssueDraftEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]models.IssueDraftEvent(nil), p.events...)
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 255})
		}
	}

	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(), nil))

	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file attached"))
	}

	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}
