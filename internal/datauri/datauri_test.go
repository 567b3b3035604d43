package datauri

import (
	"bytes"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	d, err := Parse("data:audio/webm;codecs=opus;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.MIMEType != "audio/webm;codecs=opus" {
		t.Errorf("mime = %q", d.MIMEType)
	}
	if string(d.Data) != "hello" {
		t.Errorf("data = %q", d.Data)
	}
}

func TestParseUnpadded(t *testing.T) {
	d, err := Parse("data:text/plain;base64,aGVsbG8")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(d.Data) != "hello" {
		t.Errorf("data = %q", d.Data)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"http://example.com/a.png", ErrNotDataURI},
		{"data:image/png;base64", ErrNotDataURI},
		{"data:image/png,rawbytes", ErrNotBase64},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
	if _, err := Parse("data:image/png;base64,!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	payload := []byte{0, 1, 2, 250, 255}
	s := Encode("audio/wav", payload)
	d, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.MIMEType != "audio/wav" || !bytes.Equal(d.Data, payload) {
		t.Errorf("round trip = %+v", d)
	}
	if d.String() != s {
		t.Errorf("String() = %q, want %q", d.String(), s)
	}
}
