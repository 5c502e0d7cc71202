package agent

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/imkonsowa/citiassist/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImagePassthroughPNG(t *testing.T) {
	data := pngBytes(t)

	img, err := DecodeImage(&models.ImageRequest{Data: data, Filename: "pothole.png"})
	require.NoError(t, err)

	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, data, img.Data)
}

func TestDecodeImageReencodesGIF(t *testing.T) {
	img, err := DecodeImage(&models.ImageRequest{Data: gifBytes(t), Filename: "streetlight.gif"})
	require.NoError(t, err)

	assert.Equal(t, "gif", img.Format)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.True(t, bytes.HasPrefix(img.Data, []byte("\x89PNG")))
}

func TestDecodeImageUnreadable(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("definitely not an image"), pngBytes(t)[:20]} {
		_, err := DecodeImage(&models.ImageRequest{Data: data, Filename: "broken.jpg"})
		assert.ErrorIs(t, err, ErrUnreadableImage)
	}
}

// pngHeader returns a PNG that declares width x height but carries no pixel
// data.
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(typ string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		buf.WriteString(typ)
		buf.Write(data)
		_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth, grayscale
	chunk("IHDR", ihdr)
	chunk("IDAT", nil)
	chunk("IEND", nil)

	return buf.Bytes()
}

func gifHeader(width, height uint16) []byte {
	data := []byte("GIF89a")
	data = binary.LittleEndian.AppendUint16(data, width)
	data = binary.LittleEndian.AppendUint16(data, height)

	return append(data, 0, 0, 0)
}

func TestDecodeImageRejectsOversizedDimensions(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"png", pngHeader(20000, 20000)},
		{"png wide", pngHeader(60000, 60000)},
		{"gif", gifHeader(65535, 65535)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Less(t, len(tc.data), 100)

			_, err := DecodeImage(&models.ImageRequest{Data: tc.data, Filename: "bomb"})
			require.ErrorIs(t, err, ErrUnreadableImage)
			assert.Contains(t, err.Error(), "pixel limit")
		})
	}
}

func readFileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()

	body, contentType := multipartBody(t, "image", filename, data)
	req, err := http.NewRequest(http.MethodPost, "/", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	_, fh, err := req.FormFile("image")
	require.NoError(t, err)

	return fh
}

func TestReadImageRequest(t *testing.T) {
	data := pngBytes(t)

	req, err := ReadImageRequest(readFileHeader(t, "form.png", data), 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "form.png", req.Filename)
	assert.Equal(t, data, req.Data)
}

func TestReadImageRequestRejects(t *testing.T) {
	testCases := []struct {
		name string
		fh   *multipart.FileHeader
		max  int64
		msg  string
	}{
		{"missing", nil, 0, "No image uploaded"},
		{"empty filename", &multipart.FileHeader{Filename: ""}, 0, "No selected file"},
		{"too large", readFileHeader(t, "big.png", pngBytes(t)), 8, "Image too large"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadImageRequest(tc.fh, tc.max)
			require.ErrorIs(t, err, ErrInvalidInput)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tc.msg, reqErr.Message)
		})
	}
}
