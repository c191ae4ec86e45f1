package session

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// Payload is what Send accepts: either text in some character encoding or
// a raw byte sequence. It is resolved to a canonical byte sequence before
// the transport sees it; raw bytes pass through untouched.
type Payload struct {
	text    string
	charset string
	raw     []byte
	isText  bool
}

// Text returns a UTF-8 text payload.
func Text(s string) Payload {
	return Payload{text: s, isText: true}
}

// TextEncoding returns a text payload transcoded to the named IANA
// charset (e.g. "ISO-8859-1", "US-ASCII") before transmission.
func TextEncoding(s, charset string) Payload {
	return Payload{text: s, charset: charset, isText: true}
}

// Bytes returns a raw byte payload.
func Bytes(b []byte) Payload {
	return Payload{raw: b}
}

// Encode resolves the payload to the byte sequence handed to the transport.
func (p Payload) Encode() ([]byte, error) {
	if !p.isText {
		return p.raw, nil
	}
	if isUTF8(p.charset) {
		return []byte(p.text), nil
	}
	enc, err := ianaindex.IANA.Encoding(p.charset)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, p.charset)
	}
	return enc.NewEncoder().Bytes([]byte(p.text))
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "", "utf8", "utf-8":
		return true
	}
	return false
}
