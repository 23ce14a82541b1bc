// Package dfs reads DFS archives: a header file holding a directory of
// sub-files and a companion data file holding their bytes.
package dfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"a51-asset-decoder/internal/binread"
)

// Magic identifies an archive header.
const Magic = "SFDX"

var (
	ErrInvalidSignature = errors.New("invalid dfs signature")
	ErrNotFound         = errors.New("file not found in archive")
)

// Entry is one sub-file. Name parts are resolved from the string pool.
type Entry struct {
	Name1      string
	Name2      string
	Path       string
	Ext        string
	DataOffset uint32
	DataLength uint32
}

// Name returns the lookup key of the entry.
func (e Entry) Name() string { return e.Name1 + e.Name2 + e.Ext }

// Header holds the archive-level fields.
type Header struct {
	Version         uint32
	Checksum        uint32 // version 3 only
	SectorSize      uint32
	SplitSize       uint32
	NumFiles        uint32
	NumSubFiles     uint32
	StringLen       uint32
	SubFileOffset   uint32
	FileEntryOffset uint32
	ChecksumsOffset uint32 // version 3 only
	StringsOffset   uint32
}

// Archive is a parsed directory bound to a data source.
type Archive struct {
	Header  Header
	entries []Entry
	data    io.ReaderAt
	valid   bool
}

// Open parses header bytes. data supplies sub-file bytes and may be nil for
// a listing-only archive. A magic mismatch returns an archive with
// Valid() == false and a nil error.
func Open(header []byte, data io.ReaderAt) (*Archive, error) {
	a := &Archive{data: data}
	if len(header) < 4 || string(header[:4]) != Magic {
		return a, nil
	}

	c := binread.New(header)
	_ = c.Skip(4)
	h := &a.Header
	var err error
	if h.Version, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("dfs: header: %w", err)
	}
	var fields []*uint32
	if h.Version == 3 {
		fields = append(fields, &h.Checksum)
	}
	fields = append(fields, &h.SectorSize, &h.SplitSize, &h.NumFiles, &h.NumSubFiles,
		&h.StringLen, &h.SubFileOffset, &h.FileEntryOffset)
	if h.Version == 3 {
		fields = append(fields, &h.ChecksumsOffset)
	}
	fields = append(fields, &h.StringsOffset)
	for _, dst := range fields {
		if *dst, err = c.ReadU32(); err != nil {
			return nil, fmt.Errorf("dfs: header: %w", err)
		}
	}

	end := uint64(h.StringsOffset) + uint64(h.StringLen)
	if end > uint64(len(header)) {
		return nil, fmt.Errorf("dfs: %w: string pool [%d,%d) (len %d)", binread.ErrOutOfBounds, h.StringsOffset, end, len(header))
	}
	pool := header[h.StringsOffset:end]

	if err := c.Seek(int(h.FileEntryOffset)); err != nil {
		return nil, fmt.Errorf("dfs: file entries: %w", err)
	}
	a.entries = make([]Entry, 0, min(int(h.NumFiles), c.Remaining()/24))
	for i := 0; i < int(h.NumFiles); i++ {
		e, err := readEntry(c, pool)
		if err != nil {
			return nil, fmt.Errorf("dfs: entry %d: %w", i, err)
		}
		a.entries = append(a.entries, e)
	}
	a.valid = true
	return a, nil
}

func readEntry(c *binread.Cursor, pool []byte) (Entry, error) {
	var e Entry
	for _, dst := range []*string{&e.Name1, &e.Name2, &e.Path, &e.Ext} {
		off, err := c.ReadU32()
		if err != nil {
			return e, err
		}
		if *dst, err = binread.CStringAt(pool, int(off)); err != nil {
			return e, err
		}
	}
	var err error
	if e.DataOffset, err = c.ReadU32(); err != nil {
		return e, err
	}
	e.DataLength, err = c.ReadU32()
	return e, err
}

// OpenFile opens base+".DFS" and reads sub-files from base+".000".
// The data file is opened per read.
func OpenFile(base string) (*Archive, error) {
	header, err := os.ReadFile(base + ".DFS")
	if err != nil {
		return nil, fmt.Errorf("dfs: %w", err)
	}
	a, err := Open(header, fileData(base+".000"))
	if err != nil {
		return nil, fmt.Errorf("dfs: %s: %w", base, err)
	}
	if !a.Valid() {
		return nil, fmt.Errorf("dfs: %s: %w", base, ErrInvalidSignature)
	}
	return a, nil
}

type fileData string

func (p fileData) ReadAt(b []byte, off int64) (int, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(b, off)
}

// Valid reports whether the header magic matched.
func (a *Archive) Valid() bool { return a != nil && a.valid }

// Entries returns the entries in directory order.
func (a *Archive) Entries() []Entry { return a.entries }

// Lookup returns the entry whose Name equals name.
func (a *Archive) Lookup(name string) (Entry, bool) {
	for _, e := range a.entries {
		if e.Name() == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Get returns the bytes of the named sub-file.
func (a *Archive) Get(name string) ([]byte, error) {
	if !a.valid {
		return nil, ErrInvalidSignature
	}
	e, ok := a.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("dfs: %q: %w", name, ErrNotFound)
	}
	return a.Read(e)
}

// Read returns the bytes of e from the data source.
func (a *Archive) Read(e Entry) ([]byte, error) {
	if a.data == nil {
		return nil, fmt.Errorf("dfs: %q: archive has no data source", e.Name())
	}
	buf := make([]byte, e.DataLength)
	n, err := a.data.ReadAt(buf, int64(e.DataOffset))
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("dfs: %q: %w", e.Name(), err)
}

// Filenames returns the names of entries whose extension matches ext,
// ignoring case and a leading dot. An empty ext matches every entry.
func (a *Archive) Filenames(ext string) []string {
	ext = strings.TrimPrefix(ext, ".")
	var out []string
	for _, e := range a.entries {
		if ext == "" || strings.EqualFold(strings.TrimPrefix(e.Ext, "."), ext) {
			out = append(out, e.Name())
		}
	}
	return out
}

// Describe writes one line per entry with its name, start and length.
func (a *Archive) Describe(w io.Writer) error {
	for _, e := range a.entries {
		if _, err := fmt.Fprintf(w, "%-32s start:%8d,  length:%8d\n", e.Name(), e.DataOffset, e.DataLength); err != nil {
			return err
		}
	}
	return nil
}
