package wire

import (
	"bytes"
	"testing"
)

func buildValidHeaderBytes() []byte {
	d := make([]byte, HeaderSize)
	d[0], d[1], d[2], d[3] = 0xFE, 'S', 'M', 'B'
	d[4], d[5] = 0x40, 0x00 // structure size 64
	d[6], d[7] = 0x01, 0x00 // credit charge
	d[12], d[13] = 0x00, 0x00 // command NEGOTIATE
	d[14], d[15] = 0x1F, 0x00 // credits
	return d
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"TooShort", make([]byte, HeaderSize-1), ErrMessageTooShort},
		{"BadProtocolID", func() []byte {
			d := buildValidHeaderBytes()
			d[0] = 0xFF
			return d
		}(), ErrInvalidProtocolID},
		{"BadStructureSize", func() []byte {
			d := buildValidHeaderBytes()
			d[4], d[5] = 0, 0
			return d
		}(), ErrInvalidHeaderSize},
		{"Valid", buildValidHeaderBytes(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader(tt.data)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("ParseHeader() err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader() unexpected err: %v", err)
			}
			if h.Command != CommandNegotiate {
				t.Errorf("Command = %v, want NEGOTIATE", h.Command)
			}
			if h.Credits != 0x1F {
				t.Errorf("Credits = %d, want 31", h.Credits)
			}
		})
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := &Header{
		CreditCharge: 2,
		Status:       StatusSuccess,
		Command:      CommandCreate,
		Credits:      64,
		Flags:        FlagResponse,
		MessageID:    12345,
		TreeID:       7,
		SessionID:    99,
	}
	encoded := h.Encode()
	if len(encoded) != HeaderSize {
		t.Fatalf("encoded len = %d, want %d", len(encoded), HeaderSize)
	}

	parsed, err := ParseHeader(encoded)
	if err != nil {
		t.Fatalf("ParseHeader() err = %v", err)
	}
	if parsed.Command != h.Command || parsed.MessageID != h.MessageID ||
		parsed.TreeID != h.TreeID || parsed.SessionID != h.SessionID ||
		parsed.Credits != h.Credits || parsed.Status != h.Status {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, h)
	}
	if !bytes.Equal(encoded[0:4], []byte{0xFE, 'S', 'M', 'B'}) {
		t.Errorf("bad protocol id bytes: %x", encoded[0:4])
	}
}

func TestNewResponseHeader(t *testing.T) {
	req := &Header{Command: CommandEcho, MessageID: 5, Credits: 10, TreeID: 1, SessionID: 2}
	resp := NewResponseHeader(req, StatusSuccess)
	if !resp.IsResponse() {
		t.Error("response header missing FlagResponse")
	}
	if resp.MessageID != req.MessageID {
		t.Errorf("MessageID = %d, want %d", resp.MessageID, req.MessageID)
	}
	if resp.Status != StatusSuccess {
		t.Errorf("Status = %v, want success", resp.Status)
	}
}

func TestIsSMB2Message(t *testing.T) {
	if !IsSMB2Message(buildValidHeaderBytes()) {
		t.Error("expected SMB2 message to be detected")
	}
	if IsSMB2Message([]byte{0xFF, 'S', 'M', 'B'}) {
		t.Error("SMB1 message should not be detected as SMB2")
	}
	if IsSMB1Message(buildValidHeaderBytes()) {
		t.Error("SMB2 message should not be detected as SMB1")
	}
}
