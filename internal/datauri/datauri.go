// Package datauri parses and builds base64 data URIs of the form
// data:<mime>;base64,<data>.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotDataURI = errors.New("not a data URI")
	ErrNotBase64  = errors.New("data URI is not base64 encoded")
)

// DataURI is a decoded data URI.
type DataURI struct {
	MIMEType string
	Data     []byte
}

// Parse decodes s. Only base64 payloads are accepted; parameters between the
// MIME type and the base64 marker (e.g. codecs=opus) are kept on MIMEType.
func Parse(s string) (*DataURI, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrNotDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, ErrNotBase64
	}
	if mime == "" {
		mime = "text/plain"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some recorders emit unpadded payloads.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("decoding data URI payload: %w", err)
		}
	}
	return &DataURI{MIMEType: mime, Data: data}, nil
}

// Encode builds a base64 data URI for data.
func Encode(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// String re-encodes d.
func (d *DataURI) String() string {
	return Encode(d.MIMEType, d.Data)
}
