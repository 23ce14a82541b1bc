// Package info parses the text level-info files stored next to a level's
// binary data.
//
// A file is a series of sections:
//
//	[PlayerInfo:1]
//	{Position:fff Pitch:f Yaw:f}
//	 -120.5 0 3400 0 1.5708
//
// The header names the section type and record count (default 1). The
// brace line declares fields; every code character consumes one token of a
// record line: f float, d int, s quoted string, g hex guid.
package info

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Field is one declared field.
type Field struct {
	Name  string
	Codes string
}

// Record maps field names to their values. Each value is a float32, int32,
// string or uint64 depending on its code.
type Record map[string][]any

// Section is one [Type:count] block.
type Section struct {
	Type    string
	Count   int
	Fields  []Field
	Records []Record
}

// Parse reads every section in data.
func Parse(data []byte) ([]Section, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	next := func() (string, bool) {
		for sc.Scan() {
			lineNo++
			if line := strings.TrimSpace(sc.Text()); line != "" {
				return line, true
			}
		}
		return "", false
	}

	var out []Section
	for {
		line, ok := next()
		if !ok {
			break
		}
		if !strings.HasPrefix(line, "[") {
			continue
		}
		sec, err := parseHeader(line)
		if err != nil {
			return nil, fmt.Errorf("info: line %d: %w", lineNo, err)
		}

		line, ok = next()
		if !ok || !strings.HasPrefix(line, "{") {
			return nil, fmt.Errorf("info: line %d: expected field definitions after [%s], got %q", lineNo, sec.Type, line)
		}
		if sec.Fields, err = parseFields(line); err != nil {
			return nil, fmt.Errorf("info: line %d: %w", lineNo, err)
		}

		for i := 0; i < sec.Count; i++ {
			line, ok = next()
			if !ok {
				return nil, fmt.Errorf("info: [%s]: expected %d records, got %d", sec.Type, sec.Count, i)
			}
			rec, err := parseRecord(sec.Fields, line)
			if err != nil {
				return nil, fmt.Errorf("info: line %d: %w", lineNo, err)
			}
			sec.Records = append(sec.Records, rec)
		}
		out = append(out, sec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	return out, nil
}

func parseHeader(line string) (Section, error) {
	if !strings.HasSuffix(line, "]") {
		return Section{}, fmt.Errorf("unterminated header %q", line)
	}
	typ, count, found := strings.Cut(line[1:len(line)-1], ":")
	sec := Section{Type: strings.TrimSpace(typ), Count: 1}
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return Section{}, fmt.Errorf("bad record count in %q", line)
		}
		sec.Count = n
	}
	return sec, nil
}

func parseFields(line string) ([]Field, error) {
	line = strings.TrimSuffix(strings.TrimPrefix(line, "{"), "}")
	var fields []Field
	for _, def := range strings.Fields(line) {
		name, codes, ok := strings.Cut(def, ":")
		if !ok || name == "" || codes == "" {
			return nil, fmt.Errorf("invalid field definition %q", def)
		}
		for _, c := range codes {
			if !strings.ContainsRune("fdsg", c) {
				return nil, fmt.Errorf("field %s: unknown code %q", name, c)
			}
		}
		fields = append(fields, Field{Name: name, Codes: codes})
	}
	return fields, nil
}

func parseRecord(fields []Field, line string) (Record, error) {
	toks, err := tokenize(line)
	if err != nil {
		return nil, err
	}
	rec := make(Record, len(fields))
	for _, f := range fields {
		vals := make([]any, 0, len(f.Codes))
		for _, code := range f.Codes {
			if len(toks) == 0 {
				return nil, fmt.Errorf("field %s: record too short", f.Name)
			}
			tok := toks[0]
			toks = toks[1:]
			v, err := parseValue(code, tok)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			vals = append(vals, v)
		}
		rec[f.Name] = vals
	}
	if len(toks) != 0 {
		return nil, fmt.Errorf("%d unused tokens in record", len(toks))
	}
	return rec, nil
}

func parseValue(code rune, tok string) (any, error) {
	switch code {
	case 'f':
		v, err := strconv.ParseFloat(tok, 32)
		return float32(v), err
	case 'd':
		v, err := strconv.ParseInt(tok, 10, 32)
		return int32(v), err
	case 's':
		return tok, nil
	case 'g':
		tok = strings.ReplaceAll(strings.TrimPrefix(strings.ToLower(tok), "0x"), ":", "")
		v, err := strconv.ParseUint(tok, 16, 64)
		return v, err
	}
	return nil, fmt.Errorf("unknown code %q", code)
}

// tokenize splits on whitespace; double-quoted tokens keep their spaces and
// lose their quotes.
func tokenize(line string) ([]string, error) {
	var toks []string
	for {
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			return toks, nil
		}
		if line[0] == '"' {
			end := strings.IndexByte(line[1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated string in %q", line)
			}
			toks = append(toks, line[1:end+1])
			line = line[end+2:]
			continue
		}
		end := strings.IndexAny(line, " \t")
		if end < 0 {
			end = len(line)
		}
		toks = append(toks, line[:end])
		line = line[end:]
	}
}

// Float returns a single-float field.
func (r Record) Float(name string) (float32, bool) {
	v := r[name]
	if len(v) != 1 {
		return 0, false
	}
	f, ok := v[0].(float32)
	return f, ok
}

// Vec3 returns a three-float field.
func (r Record) Vec3(name string) (mgl32.Vec3, bool) {
	v := r[name]
	if len(v) != 3 {
		return mgl32.Vec3{}, false
	}
	var out mgl32.Vec3
	for i := range out {
		f, ok := v[i].(float32)
		if !ok {
			return mgl32.Vec3{}, false
		}
		out[i] = f
	}
	return out, true
}

// Text returns a single-string field.
func (r Record) Text(name string) (string, bool) {
	v := r[name]
	if len(v) != 1 {
		return "", false
	}
	s, ok := v[0].(string)
	return s, ok
}

// PlayerStart is where and how the player spawns.
type PlayerStart struct {
	Position   mgl32.Vec3
	Pitch, Yaw float32
}

// FindPlayerStart extracts the first PlayerInfo record.
func FindPlayerStart(sections []Section) (PlayerStart, error) {
	for _, s := range sections {
		if s.Type != "PlayerInfo" || len(s.Records) == 0 {
			continue
		}
		r := s.Records[0]
		var ps PlayerStart
		var ok1, ok2, ok3 bool
		ps.Position, ok1 = r.Vec3("Position")
		ps.Pitch, ok2 = r.Float("Pitch")
		ps.Yaw, ok3 = r.Float("Yaw")
		if !ok1 || !ok2 || !ok3 {
			return PlayerStart{}, fmt.Errorf("info: PlayerInfo lacks Position/Pitch/Yaw")
		}
		return ps, nil
	}
	return PlayerStart{}, fmt.Errorf("info: no PlayerInfo section")
}
