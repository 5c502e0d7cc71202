package agent

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/imkonsowa/citiassist/models"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImagePixels bounds width*height of an accepted upload.
const MaxImagePixels = 50_000_000

// passthroughMIME lists the formats the model accepts as uploaded; anything
// else that decodes is re-encoded to PNG.
var passthroughMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ReadImageRequest reads an uploaded file part, refusing empty names and
// files over maxBytes.
func ReadImageRequest(fh *multipart.FileHeader, maxBytes int64) (*models.ImageRequest, error) {
	if fh == nil {
		return nil, invalidInput("No image uploaded")
	}
	if fh.Filename == "" {
		return nil, invalidInput("No selected file")
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, invalidInput("Image too large")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	reader := io.Reader(f)
	if maxBytes > 0 {
		reader = io.LimitReader(f, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, invalidInput("Image too large")
	}

	return &models.ImageRequest{Data: data, Filename: fh.Filename}, nil
}

// DecodeImage checks that the uploaded bytes are a picture and prepares
// them for the model. Only the header is read unless the format has to be
// re-encoded, so the pixel cap bounds memory before any full decode.
func DecodeImage(req *models.ImageRequest) (*models.Image, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrUnreadableImage, req.Filename)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(req.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot identify image file %q: %v", ErrUnreadableImage, req.Filename, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %q is %dx%d, over the %d pixel limit", ErrUnreadableImage, req.Filename, cfg.Width, cfg.Height, MaxImagePixels)
	}

	out := &models.Image{
		Data:     req.Data,
		MIMEType: mimetype.Detect(req.Data).String(),
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}

	if passthroughMIME[out.MIMEType] {
		return out, nil
	}

	img, _, err := image.Decode(bytes.NewReader(req.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode image file %q: %v", ErrUnreadableImage, req.Filename, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: failed to re-encode %s as png: %v", ErrUnreadableImage, format, err)
	}

	out.Data = buf.Bytes()
	out.MIMEType = "image/png"

	return out, nil
}
