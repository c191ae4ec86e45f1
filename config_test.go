package session

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaudRate != 115200 {
		t.Errorf("expected default baud rate 115200, got %d", cfg.BaudRate)
	}
	if cfg.DataBits != 8 {
		t.Errorf("expected default data bits 8, got %d", cfg.DataBits)
	}
	if cfg.StopBits != 1 {
		t.Errorf("expected default stop bits 1, got %d", cfg.StopBits)
	}
	if cfg.Parity != ParityNone {
		t.Errorf("expected default parity none, got %v", cfg.Parity)
	}
	if got := cfg.Frame(); got != "8N1" {
		t.Errorf("expected default frame 8N1, got %s", got)
	}
}

func TestWithBaudRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		wantErr bool
	}{
		{"valid 9600", 9600, false},
		{"valid 115200", 115200, false},
		{"valid 4000000", 4000000, false},
		{"invalid 0", 0, true},
		{"invalid negative", -9600, true},
		{"invalid nonstandard", 12345, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := WithBaudRate(tt.rate)(&cfg)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBaudRate) {
					t.Errorf("expected ErrInvalidBaudRate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if cfg.BaudRate != tt.rate {
				t.Errorf("expected baud rate %d, got %d", tt.rate, cfg.BaudRate)
			}
		})
	}
}

func TestWithDataBits(t *testing.T) {
	tests := []struct {
		bits    int
		wantErr bool
	}{
		{5, false},
		{6, false},
		{7, false},
		{8, false},
		{4, true},
		{9, true},
		{0, true},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		err := WithDataBits(tt.bits)(&cfg)

		if tt.wantErr {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("data bits %d: expected ErrInvalidConfig, got %v", tt.bits, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("data bits %d: unexpected error: %v", tt.bits, err)
		}
		if cfg.DataBits != tt.bits {
			t.Errorf("expected data bits %d, got %d", tt.bits, cfg.DataBits)
		}
	}
}

func TestWithStopBits(t *testing.T) {
	tests := []struct {
		bits    int
		wantErr bool
	}{
		{1, false},
		{2, false},
		{0, true},
		{3, true},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		err := WithStopBits(tt.bits)(&cfg)

		if tt.wantErr {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("stop bits %d: expected ErrInvalidConfig, got %v", tt.bits, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("stop bits %d: unexpected error: %v", tt.bits, err)
		}
	}
}

func TestWithParity(t *testing.T) {
	for _, p := range []Parity{ParityNone, ParityOdd, ParityEven, ParityMark, ParitySpace} {
		cfg := DefaultConfig()
		if err := WithParity(p)(&cfg); err != nil {
			t.Errorf("parity %v: unexpected error: %v", p, err)
		}
		if cfg.Parity != p {
			t.Errorf("expected parity %v, got %v", p, cfg.Parity)
		}
	}

	cfg := DefaultConfig()
	if err := WithParity(Parity(99))(&cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for out-of-range parity, got %v", err)
	}
}

func TestConfigFrame(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: ParityNone}, "8N1"},
		{Config{BaudRate: 9600, DataBits: 7, StopBits: 1, Parity: ParityEven}, "7E1"},
		{Config{BaudRate: 9600, DataBits: 8, StopBits: 2, Parity: ParityOdd}, "8O2"},
		{Config{BaudRate: 1200, DataBits: 5, StopBits: 2, Parity: ParityMark}, "5M2"},
		{Config{BaudRate: 1200, DataBits: 6, StopBits: 1, Parity: ParitySpace}, "6S1"},
	}

	for _, tt := range tests {
		if got := tt.cfg.Frame(); got != tt.want {
			t.Errorf("expected frame %s, got %s", tt.want, got)
		}
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New("/dev/ttyUSB0", WithBaudRate(12345)); !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("expected ErrInvalidBaudRate, got %v", err)
	}
	if _, err := New("/dev/ttyUSB0", WithDataBits(3)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
