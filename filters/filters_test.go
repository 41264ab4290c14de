package filters

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	pdfcpufilter "github.com/pdfcpu/pdfcpu/pkg/filter"
)

// forgeEncoded round-trips input through pdfcpu's own filter encoder so the
// fixture is a realistic encoding of this filter, not a hand-rolled one.
func forgeEncoded(t *testing.T, name Name, input []byte) []byte {
	t.Helper()
	fi, err := pdfcpufilter.NewFilter(string(name), nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := fi.Encode(bytes.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	input := make([]byte, 1000)
	_, _ = rand.Read(input)

	for _, name := range []Name{ASCII85Decode, ASCIIHexDecode, RunLengthDecode, FlateDecode} {
		encoded := forgeEncoded(t, name, input)
		got, err := Filters{{Name: name}}.Decode(encoded)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bytes.Equal(got, input) {
			t.Errorf("%s: round trip mismatch (got %d bytes, want %d)", name, len(got), len(input))
		}
	}
}

func TestShortAliases(t *testing.T) {
	for short, long := range shortAliases {
		if got := NormalizeName(short); got != long {
			t.Errorf("NormalizeName(%s) = %s, want %s", short, got, long)
		}
	}
	if got := NormalizeName(FlateDecode); got != FlateDecode {
		t.Errorf("NormalizeName on a canonical name should be a no-op, got %s", got)
	}
}

func TestUnsupportedFilter(t *testing.T) {
	if _, err := (Filters{{Name: "BogusDecode"}}).Decode([]byte("x")); err == nil {
		t.Error("expected an error for an unknown filter name")
	}
}
