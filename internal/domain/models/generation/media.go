package generation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURI is returned when a string is not a base64 data URI.
var ErrInvalidDataURI = errors.New("expected format 'data:<mimetype>;base64,<encoded_data>'")

// Media is decoded binary content with its MIME type.
type Media struct {
	MIMEType string
	Data     []byte
}

// DataURI encodes m as "data:<mime>;base64,<data>".
func (m Media) DataURI() string {
	return "data:" + m.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}

// ParseDataURI decodes a base64 data URI.
func ParseDataURI(uri string) (Media, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Media{}, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Media{}, ErrInvalidDataURI
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok || mime == "" || !strings.Contains(mime, "/") {
		return Media{}, ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Media{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Media{}, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}
	return Media{MIMEType: mime, Data: data}, nil
}

// IsImage reports whether the media has an image MIME type.
func (m Media) IsImage() bool {
	return strings.HasPrefix(m.MIMEType, "image/")
}

// IsAudio reports whether the media has an audio MIME type.
func (m Media) IsAudio() bool {
	return strings.HasPrefix(m.MIMEType, "audio/")
}
