package session

import (
	"bytes"
	"errors"
	"testing"
)

func TestPayloadEncode(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    []byte
		wantErr error
	}{
		{
			name:    "utf-8 text default",
			payload: Text("PING"),
			want:    []byte{0x50, 0x49, 0x4E, 0x47},
		},
		{
			name:    "utf-8 text explicit",
			payload: TextEncoding("åäö", "UTF-8"),
			want:    []byte("åäö"),
		},
		{
			name:    "utf8 alias",
			payload: TextEncoding("hi", "utf8"),
			want:    []byte("hi"),
		},
		{
			name:    "latin-1 transcoding",
			payload: TextEncoding("héllo", "ISO-8859-1"),
			want:    []byte{'h', 0xE9, 'l', 'l', 'o'},
		},
		{
			name:    "us-ascii passthrough",
			payload: TextEncoding("OK", "US-ASCII"),
			want:    []byte{0x4F, 0x4B},
		},
		{
			name:    "raw bytes untouched",
			payload: Bytes([]byte{0x02, 0xFF, 0x00, 0x03}),
			want:    []byte{0x02, 0xFF, 0x00, 0x03},
		},
		{
			name:    "empty text",
			payload: Text(""),
			want:    []byte{},
		},
		{
			name:    "unknown charset",
			payload: TextEncoding("x", "no-such-charset"),
			wantErr: ErrUnknownEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.payload.Encode()

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("expected % X, got % X", tt.want, got)
			}
		})
	}
}

func TestPayloadEncodeNilBytes(t *testing.T) {
	got, err := Bytes(nil).Encode()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty payload, got % X", got)
	}
}
