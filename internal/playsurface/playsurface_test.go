package playsurface

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"a51-asset-decoder/internal/binread"
)

func TestDecode(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, 7)
	data = binary.LittleEndian.AppendUint32(data, 12)
	data = binary.LittleEndian.AppendUint32(data, 30)
	data = binary.LittleEndian.AppendUint32(data, 411)
	data = append(data, 0xaa, 0xbb) // zone data follows

	h, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if h != (Header{Version: 7, NumZones: 12, NumPortals: 30, NumGeoms: 411}) {
		t.Fatalf("header = %+v", h)
	}

	var out strings.Builder
	if err := h.Describe(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "NumZones:    12\n") || !strings.Contains(out.String(), "Num Geoms:   411\n") {
		t.Errorf("describe = %q", out.String())
	}

	if _, err := Decode(data[:10]); !errors.Is(err, binread.ErrOutOfBounds) {
		t.Errorf("short header err = %v", err)
	}
}
