package domain

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Link is a source reference returned with an answer
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// AnswerResult is the response to a question
type AnswerResult struct {
	Answer string `json:"answer"`
	Links  []Link `json:"links"`
}

// Image is an attachment decoded from a request
type Image struct {
	Data      []byte
	MediaType string
}

// Base64 returns the standard base64 encoding of the image bytes
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data URL
func (i *Image) DataURL() string {
	return "data:" + i.MediaType + ";base64," + i.Base64()
}

// AskRequest is a question with an optional base64 encoded image
type AskRequest struct {
	Question string
	Image    string
}

// DecodeImage decodes a base64 attachment.
// An empty string yields nil; data URL prefixes are accepted.
func DecodeImage(encoded string) (*Image, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidImage
	}

	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		// the language model APIs reject non-image media types
		mediaType = "image/jpeg"
	}
	return &Image{Data: data, MediaType: mediaType}, nil
}
