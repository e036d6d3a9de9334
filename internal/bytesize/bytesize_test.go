package bytesize

import "testing"

func TestParseByteSize(t *testing.T) {
	cases := []struct {
		in      string
		want    ByteSize
		wantErr bool
	}{
		{"0", 0, false},
		{"1024", 1024, false},
		{"64MB", 64 * MB, false},
		{"1Gi", GiB, false},
		{"500Mi", 500 * MiB, false},
		{"1.5Gi", ByteSize(1.5 * float64(GiB)), false},
		{"", 0, true},
		{"abc", 0, true},
		{"5XB", 0, true},
	}
	for _, c := range cases {
		got, err := ParseByteSize(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseByteSize(%q) expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseByteSize(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseByteSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("1Gi")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if b != GiB {
		t.Errorf("b = %d, want %d", b, GiB)
	}
}

func TestString(t *testing.T) {
	cases := map[ByteSize]string{
		512:     "512B",
		2 * KiB: "2.00KiB",
		3 * MiB: "3.00MiB",
		4 * GiB: "4.00GiB",
	}
	for size, want := range cases {
		if got := size.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", uint64(size), got, want)
		}
	}
}
