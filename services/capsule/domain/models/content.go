package models

import (
	"fmt"
	"net/http"
	"strings"
)

// ContentKind distinguishes the two content forms a capsule can hold.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// MaxContentBytes caps a single content payload.
const MaxContentBytes = 10 << 20

// Content is the payload sealed inside a capsule: a text message or one image.
type Content struct {
	Kind        ContentKind
	ContentType string
	Data        []byte
}

// ContentRef is an opaque locator returned by a content store.
type ContentRef string

func (r ContentRef) String() string { return string(r) }

// NewTextContent wraps a message.
func NewTextContent(msg string) (Content, error) {
	if strings.TrimSpace(msg) == "" {
		return Content{}, fmt.Errorf("message must not be empty")
	}
	if len(msg) > MaxContentBytes {
		return Content{}, fmt.Errorf("message must not exceed %d bytes", MaxContentBytes)
	}
	return Content{Kind: ContentText, ContentType: "text/plain; charset=utf-8", Data: []byte(msg)}, nil
}

// NewImageContent wraps image bytes. The content type is sniffed from the data,
// not trusted from the client.
func NewImageContent(data []byte) (Content, error) {
	if len(data) == 0 {
		return Content{}, fmt.Errorf("image must not be empty")
	}
	if len(data) > MaxContentBytes {
		return Content{}, fmt.Errorf("image must not exceed %d bytes", MaxContentBytes)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return Content{}, fmt.Errorf("image has unsupported content type %q", ct)
	}
	return Content{Kind: ContentImage, ContentType: ct, Data: data}, nil
}

// Extension returns a file extension suitable for object keys.
func (c Content) Extension() string {
	switch c.ContentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if c.Kind == ContentText {
		return ".txt"
	}
	return ".bin"
}
