package format

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadEdgeList parses a text edge list: one "src dst [weight]" per line,
// separated by spaces, tabs or commas. Lines starting with '#' or '%' are
// comments. Missing weights default to 1.
func ReadEdgeList(r io.Reader) ([]Edge, error) {
	var edges []Edge

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' || text[0] == '%' {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: want at least 2 fields", ErrInvalidGraph, line)
		}

		src, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidGraph, line, err)
		}
		dst, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidGraph, line, err)
		}
		e := Edge{Src: uint32(src), Dst: uint32(dst), Weight: 1}
		if len(fields) > 2 {
			w, err := strconv.ParseFloat(fields[2], 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidGraph, line, err)
			}
			e.Weight = float32(w)
		}
		edges = append(edges, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}
