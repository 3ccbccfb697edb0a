package db

import "testing"

func TestVectorCodec(t *testing.T) {
	b := EncodeVector([]float32{1.0, -2.5})
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	// 1.0f little-endian = 00 00 80 3f
	if b[0] != 0x00 || b[1] != 0x00 || b[2] != 0x80 || b[3] != 0x3f {
		t.Errorf("unexpected encoding of 1.0: % x", b[:4])
	}

	v, err := DecodeVector(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v) != 2 || v[0] != 1.0 || v[1] != -2.5 {
		t.Errorf("round trip = %v", v)
	}

	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for a truncated blob")
	}
}
