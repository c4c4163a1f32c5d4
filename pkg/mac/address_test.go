package mac

import (
	"encoding/json"
	"testing"
)

func TestParseExtAddr(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"00:12:4b:00:14:f7:d6:01", false},
		{"00124b0014f7d601", false},
		{"00-12-4b-00-14-f7-d6-01", false},
		{"00:12", true},
		{"zz124b0014f7d601", true},
	}
	for _, tt := range tests {
		a, err := ParseExtAddr(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseExtAddr(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && a.String() != "00:12:4b:00:14:f7:d6:01" {
			t.Errorf("ParseExtAddr(%q) = %s", tt.in, a)
		}
	}
}

func TestExtAddrJSON(t *testing.T) {
	a := ExtAddr{1, 2, 3, 4, 5, 6, 7, 8}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"01:02:03:04:05:06:07:08"` {
		t.Errorf("Marshal = %s", data)
	}
	var back ExtAddr
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != a {
		t.Errorf("Unmarshal = %s, want %s", back, a)
	}
}

func TestAddrEqual(t *testing.T) {
	ext := ExtAddr{1}
	tests := []struct {
		name string
		a, b Addr
		want bool
	}{
		{"same short", ShortAddr(1), ShortAddr(1), true},
		{"different short", ShortAddr(1), ShortAddr(2), false},
		{"same ext", ExtendedAddr(ext), ExtendedAddr(ext), true},
		{"mode mismatch", ShortAddr(1), ExtendedAddr(ext), false},
		{"short ignores ext member", Addr{Mode: AddrModeShort, Short: 3, Ext: ext}, ShortAddr(3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuperframeSpec(t *testing.T) {
	s := NewSuperframeSpec(5, 3, true, true)
	if s.BeaconOrder() != 5 || s.SuperframeOrder() != 3 {
		t.Errorf("orders = %d/%d, want 5/3", s.BeaconOrder(), s.SuperframeOrder())
	}
	if !s.AssociationPermit() || !s.PANCoordinator() {
		t.Error("permit/coordinator bits not set")
	}
	if NewSuperframeSpec(15, 15, false, false).AssociationPermit() {
		t.Error("permit bit set unexpectedly")
	}
}

func TestStatusString(t *testing.T) {
	if StatusNoAck.String() != "NO_ACK" {
		t.Errorf("String() = %s", StatusNoAck)
	}
	if Status(0x77).String() != "STATUS_0x77" {
		t.Errorf("String() = %s", Status(0x77))
	}
	if StatusError("poll", StatusSuccess) != nil {
		t.Error("StatusError(success) != nil")
	}
	if err := StatusError("poll", StatusNoAck); err == nil || err.Error() != "mac poll: NO_ACK" {
		t.Errorf("StatusError = %v", err)
	}
}
