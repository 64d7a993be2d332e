package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Variant is a color of an article with its pair count.
type Variant struct {
	Color    string
	Quantity int
}

// Article is a SKU with its colors in insertion order.
type Article struct {
	ID     string
	Colors []Variant
}

// Total returns the sum of pairs over all colors.
func (a Article) Total() int {
	n := 0
	for _, v := range a.Colors {
		n += v.Quantity
	}
	return n
}

// Snapshot is an ordered copy of the whole inventory.
// It is encoded as the nested JSON object {"article": {"color": qty}}
// and keeps key order in both directions.
type Snapshot []Article

func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.ID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteByte('{')
		for j, v := range a.Colors {
			if j > 0 {
				buf.WriteByte(',')
			}
			ck, err := json.Marshal(v.Color)
			if err != nil {
				return nil, err
			}
			buf.Write(ck)
			buf.WriteByte(':')
			fmt.Fprintf(&buf, "%d", v.Quantity)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	var out Snapshot
	pos := make(map[string]int)
	for dec.More() {
		id, err := readKey(dec)
		if err != nil {
			return err
		}
		colors, err := readColors(dec)
		if err != nil {
			return fmt.Errorf("article %q: %w", id, err)
		}
		if i, ok := pos[id]; ok {
			out[i].Colors = colors
			continue
		}
		pos[id] = len(out)
		out = append(out, Article{ID: id, Colors: colors})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*s = out
	return nil
}

func readColors(dec *json.Decoder) ([]Variant, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	colors := []Variant{}
	pos := make(map[string]int)
	for dec.More() {
		color, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("color %q: %w", color, err)
		}
		qty, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", color, err)
		}
		if i, ok := pos[color]; ok {
			colors[i].Quantity = int(qty)
			continue
		}
		pos[color] = len(colors)
		colors = append(colors, Variant{Color: color, Quantity: int(qty)})
	}
	return colors, expectDelim(dec, '}')
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("unexpected token %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
