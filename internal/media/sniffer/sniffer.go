package sniffer

import (
	"bytes"
	"errors"
	"io"
	"net/textproto"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeSVG  MediaType = "svg"
)

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	MIME string
}

// Photo reports whether the type may be stored as a listing photo. SVG is
// recognised only so it can be refused by name.
func (r Result) Photo() bool {
	switch r.Type {
	case TypeJPEG, TypePNG, TypeGIF, TypeWEBP:
		return true
	}
	return false
}

func (r Result) Extension() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	switch {
	case isJPEG(head):
		return Result{Type: TypeJPEG, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Type: TypePNG, MIME: "image/png"}, nil
	case isGIF(head):
		return Result{Type: TypeGIF, MIME: "image/gif"}, nil
	case isWEBP(head):
		return Result{Type: TypeWEBP, MIME: "image/webp"}, nil
	case isSVG(head):
		return Result{Type: TypeSVG, MIME: "image/svg+xml"}, nil
	}

	return Result{}, ErrUnknownType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

func isSVG(head []byte) bool {
	trimmed := strings.TrimSpace(string(head))
	return strings.HasPrefix(trimmed, "<svg") || strings.HasPrefix(trimmed, "<?xml")
}

// MimeType returns the media type of a Content-Type header without its
// parameters.
func MimeType(header textproto.MIMEHeader) string {
	contentType := header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
