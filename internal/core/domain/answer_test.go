package domain

import (
	"encoding/base64"
	"errors"
	"testing"
)

// smallest valid PNG header
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage("")
	if err != nil || img != nil {
		t.Fatalf("expected nil image for empty input, got %v, %v", img, err)
	}

	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	img, err = DecodeImage(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MediaType != "image/png" {
		t.Errorf("expected image/png, got %s", img.MediaType)
	}
	if img.Base64() != encoded {
		t.Error("expected round trip of base64 data")
	}
	if img.DataURL() != "data:image/png;base64,"+encoded {
		t.Errorf("unexpected data url %s", img.DataURL())
	}
}

func TestDecodeImage_DataURLPrefix(t *testing.T) {
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	img, err := DecodeImage(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(img.Data) != len(pngBytes) {
		t.Errorf("expected %d bytes, got %d", len(pngBytes), len(img.Data))
	}
}

func TestDecodeImage_UnknownBytesDefaultToJPEG(t *testing.T) {
	img, err := DecodeImage(base64.StdEncoding.EncodeToString([]byte("plain text")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MediaType != "image/jpeg" {
		t.Errorf("expected image/jpeg fallback, got %s", img.MediaType)
	}
}

func TestDecodeImage_Invalid(t *testing.T) {
	_, err := DecodeImage("!!!not-base64!!!")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDecodeImage_InvalidIsImageError(t *testing.T) {
	_, err := DecodeImage("%%%")
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
}
