package sniffer

import (
	"bytes"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHead(t *testing.T) {
	cases := []struct {
		name  string
		head  []byte
		want  MediaType
		photo bool
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, TypeJPEG, true},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0}, TypePNG, true},
		{"gif", []byte("GIF89a...."), TypeGIF, true},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP, true},
		{"svg", []byte("  <svg xmlns=\"http://www.w3.org/2000/svg\">"), TypeSVG, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectHead(tc.head)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Type)
			assert.Equal(t, tc.photo, got.Photo())
		})
	}

	_, err := DetectHead([]byte("plain text"))
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = DetectHead(nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDetectReturnsHead(t *testing.T) {
	data := append([]byte("GIF87a"), bytes.Repeat([]byte{1}, 600)...)
	got, head, err := Detect(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, TypeGIF, got.Type)
	assert.Len(t, head, 512)
	assert.Equal(t, "gif", got.Extension())
	assert.Equal(t, "jpg", Result{Type: TypeJPEG}.Extension())
}

func TestMimeType(t *testing.T) {
	h := textproto.MIMEHeader{}
	assert.Equal(t, "", MimeType(h))
	h.Set("Content-Type", "Image/PNG; charset=binary")
	assert.Equal(t, "image/png", MimeType(h))
}
