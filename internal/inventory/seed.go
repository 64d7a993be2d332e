package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LoadSeed reads an initial inventory of the form {"article": ["color", ...]}.
// Every color starts at zero. A missing file yields an empty snapshot.
func LoadSeed(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	snap, err := decodeSeed(data)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return snap, nil
}

func decodeSeed(data []byte) (Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var out Snapshot
	for dec.More() {
		id, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var colors []string
		if err := dec.Decode(&colors); err != nil {
			return nil, fmt.Errorf("article %q: %w", id, err)
		}
		a := Article{ID: strings.TrimSpace(id)}
		for _, c := range colors {
			a.Colors = appendColor(a.Colors, strings.TrimSpace(c), 0)
		}
		out = append(out, a)
	}
	return out, expectDelim(dec, '}')
}

// ParseBulk parses lines of the form "article: color, color" as sent with /massadd.
// Lines without a colon are skipped. It returns the snapshot and the number of accepted lines.
func ParseBulk(text string) (Snapshot, int) {
	var out Snapshot
	pos := make(map[string]int)
	lines := 0
	for _, line := range strings.Split(text, "\n") {
		art, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		art = strings.TrimSpace(art)
		if art == "" {
			continue
		}
		i, seen := pos[art]
		if !seen {
			i = len(out)
			pos[art] = i
			out = append(out, Article{ID: art})
		}
		for _, c := range strings.Split(rest, ",") {
			out[i].Colors = appendColor(out[i].Colors, strings.TrimSpace(c), 0)
		}
		lines++
	}
	return out, lines
}

func appendColor(colors []Variant, color string, qty int) []Variant {
	if color == "" {
		return colors
	}
	for _, v := range colors {
		if v.Color == color {
			return colors
		}
	}
	return append(colors, Variant{Color: color, Quantity: qty})
}
