package models

import (
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNewTextContent(t *testing.T) {
	c, err := NewTextContent("see you in ten years")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Kind != ContentText || c.Extension() != ".txt" {
		t.Fatalf("unexpected content: %+v", c)
	}

	if _, err := NewTextContent("   "); err == nil {
		t.Fatal("expected error for blank message")
	}
	if _, err := NewTextContent(strings.Repeat("x", MaxContentBytes+1)); err == nil {
		t.Fatal("expected error for oversized message")
	}
}

func TestNewImageContent(t *testing.T) {
	c, err := NewImageContent(pngHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ContentType != "image/png" || c.Extension() != ".png" {
		t.Fatalf("unexpected content: %+v", c)
	}

	if _, err := NewImageContent(nil); err == nil {
		t.Fatal("expected error for empty image")
	}
	if _, err := NewImageContent([]byte("plain text pretending")); err == nil {
		t.Fatal("expected error for non-image bytes")
	}
}
