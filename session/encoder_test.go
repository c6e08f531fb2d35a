package session

import "testing"

func TestEncodeDecode(t *testing.T) {
	in := &Record{UserID: 42, CreatedAt: 1700000000, ExpiresAt: 1700003600}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != recordSize {
		t.Fatalf("expected %d bytes, got %d", recordSize, len(data))
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *out != *in {
		t.Fatalf("decoded %+v, want %+v", out, in)
	}
}

func TestEncodeRejectsNonPositiveUser(t *testing.T) {
	if _, err := Encode(&Record{UserID: 0}); err == nil {
		t.Fatal("expected error for zero user id")
	}
	if _, err := Encode(nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}

func TestRecordExpired(t *testing.T) {
	r := &Record{ExpiresAt: 100}
	if r.Expired(99) || !r.Expired(100) {
		t.Fatal("unexpected expiry boundary")
	}
	if (&Record{}).Expired(1 << 40) {
		t.Fatal("zero ExpiresAt must never expire")
	}
}

// FuzzSessionDecode exercises the record decoder with arbitrary inputs.
// Goal: no panics, and any accepted record re-encodes to the same bytes.
func FuzzSessionDecode(f *testing.F) {
	if seed, err := Encode(&Record{UserID: 1, CreatedAt: 1700000000, ExpiresAt: 1700003600}); err == nil {
		f.Add(seed)
		f.Add(seed[:10])
	}
	f.Add([]byte{})
	f.Add([]byte{1})
	f.Add([]byte{255, 255, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		r, err := Decode(data)
		if err != nil {
			return
		}
		again, err := Encode(r)
		if err != nil {
			t.Fatalf("re-encode of decoded record failed: %v", err)
		}
		if string(again) != string(data) {
			t.Fatal("round trip changed bytes")
		}
	})
}
