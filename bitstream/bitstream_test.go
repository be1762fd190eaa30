package bitstream

import "testing"

func TestReadAcrossWordBoundary(t *testing.T) {
	// four bytes of 0xFF followed by 0x0F: bits 0..35 are all 1.
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F, 0x00, 0x00, 0x00}
	bs := New(data, 0)
	v, err := bs.Read(30)
	if err != nil {
		t.Fatal(err)
	}
	if v != mask32(30) {
		t.Fatalf("got %x want %x", v, mask32(30))
	}
	v2, err := bs.Read(10)
	if err != nil {
		t.Fatal(err)
	}
	if v2 != 0x3F {
		t.Fatalf("got %x want 0x3F", v2)
	}
}

func TestReadVBRRoundTrip(t *testing.T) {
	for n := uint(2); n <= 32; n++ {
		for _, want := range []uint64{0, 1, 2, 63, 1000, 1 << 20, 1<<34 - 1} {
			buf := encodeVBRForTest(want, n)
			bs := New(buf, 0)
			got, err := bs.ReadVBR(n)
			if err != nil {
				t.Fatalf("n=%d want=%d: %v", n, want, err)
			}
			if got != want {
				t.Fatalf("n=%d want=%d got=%d", n, want, got)
			}
		}
	}
}

// encodeVBRForTest is a minimal VBR writer used only to build round-trip
// fixtures; the production code never writes bitcode.
func encodeVBRForTest(v uint64, n uint) []byte {
	hiMask := uint64(1) << (n - 1)
	loMask := hiMask - 1
	var bits []bool
	for {
		piece := v & loMask
		v >>= (n - 1)
		cont := v != 0
		for i := uint(0); i < n-1; i++ {
			bits = append(bits, (piece>>i)&1 != 0)
		}
		bits = append(bits, cont)
		if !cont {
			break
		}
	}
	for len(bits)%32 != 0 {
		bits = append(bits, false)
	}
	out := make([]byte, len(bits)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func TestSignRotateRoundTrip(t *testing.T) {
	samples := []int64{0, 1, -1, 42, -42, 1 << 62, -(1 << 62), -1 << 63}
	for _, x := range samples {
		enc := EncodeSignRotated(x)
		got := DecodeSignRotated(enc)
		if got != x {
			t.Fatalf("x=%d enc=%d got=%d", x, enc, got)
		}
	}
}

func TestAlignTo32(t *testing.T) {
	data := make([]byte, 16)
	bs := New(data, 0)
	if _, err := bs.Read(5); err != nil {
		t.Fatal(err)
	}
	if err := bs.AlignTo32(); err != nil {
		t.Fatal(err)
	}
	if bs.BitOffset() != 32 {
		t.Fatalf("offset = %d want 32", bs.BitOffset())
	}
}

func TestOverrun(t *testing.T) {
	bs := New([]byte{0x00}, 0)
	if _, err := bs.Read(32); err == nil {
		t.Fatal("expected overrun error")
	}
}
