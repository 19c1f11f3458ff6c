package main

import "testing"

func TestParseTagID(t *testing.T) {
	tests := []struct {
		in      string
		want    TagID
		wantErr bool
	}{
		{in: "AABBCCDD", want: TagID{0xAA, 0xBB, 0xCC, 0xDD}},
		{in: "deadbeef", want: TagID{0xDE, 0xAD, 0xBE, 0xEF}},
		{in: "aa:bb:cc:dd", want: TagID{0xAA, 0xBB, 0xCC, 0xDD}},
		{in: " 11 22 33 44 ", want: TagID{0x11, 0x22, 0x33, 0x44}},
		{in: "00000000", want: TagID{}},
		{in: "AABBCC", wantErr: true},
		{in: "AABBCCDDEE", wantErr: true},
		{in: "GGBBCCDD", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTagID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTagID(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseTagID(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTagIDString(t *testing.T) {
	if got := (TagID{0xde, 0xad, 0xbe, 0xef}).String(); got != "DEADBEEF" {
		t.Errorf("String = %q", got)
	}
}

func TestTagFromUID(t *testing.T) {
	if _, ok := tagFromUID([]byte{1, 2, 3}); ok {
		t.Error("3 byte UID accepted")
	}
	tag, ok := tagFromUID([]byte{1, 2, 3, 4, 5, 6, 7})
	if !ok || tag != (TagID{1, 2, 3, 4}) {
		t.Errorf("7 byte UID -> %s, %v", tag, ok)
	}
}
