package playsurface

import (
	"fmt"
	"io"

	"a51-asset-decoder/internal/binread"
)

// Header is the fixed leading part of a play surface file.
type Header struct {
	Version    uint32
	NumZones   uint32
	NumPortals uint32
	NumGeoms   uint32
}

// Decode reads the header from data.
func Decode(data []byte) (Header, error) {
	c := binread.New(data)
	var h Header
	for _, dst := range []*uint32{&h.Version, &h.NumZones, &h.NumPortals, &h.NumGeoms} {
		v, err := c.ReadU32()
		if err != nil {
			return Header{}, fmt.Errorf("playsurface: header: %w", err)
		}
		*dst = v
	}
	return h, nil
}

func (h Header) Describe(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Version:     %d\nNumZones:    %d\nNum Portals: %d\nNum Geoms:   %d\n",
		h.Version, h.NumZones, h.NumPortals, h.NumGeoms)
	return err
}
