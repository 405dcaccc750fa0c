package trace

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical renders events as deterministic JSON for digests and
// golden files: fixed key order, NFC-normalized strings, no HTML escaping,
// no floats anywhere in the shape.
//
// Standard json.Marshal is nearly deterministic for structs, but it HTML-
// escapes strings and its output would silently change if the Event shape
// grew a map. Spelling the serialization out keeps stored digests valid.
func MarshalCanonical(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, e := range events {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalEvent(&buf, e); err != nil {
			return nil, fmt.Errorf("event[%d]: %w", i, err)
		}
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalEvent writes one event with keys in lexicographic order:
// goroutine, kind, note, seq. Note is always present in canonical form,
// even when empty, so every event has the same shape.
func marshalEvent(buf *bytes.Buffer, e Event) error {
	buf.WriteByte('{')

	buf.WriteString(`"goroutine":`)
	fmt.Fprintf(buf, "%d", e.Goroutine)

	buf.WriteString(`,"kind":`)
	if err := writeCanonicalString(buf, e.Kind); err != nil {
		return fmt.Errorf("kind: %w", err)
	}

	buf.WriteString(`,"note":`)
	if err := writeCanonicalString(buf, e.Note); err != nil {
		return fmt.Errorf("note: %w", err)
	}

	buf.WriteString(`,"seq":`)
	fmt.Fprintf(buf, "%d", e.Seq)

	buf.WriteByte('}')
	return nil
}

// writeCanonicalString writes a JSON string, NFC normalized at the
// serialization boundary, with HTML escaping disabled so < > & survive
// verbatim.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	// json.Encoder adds a trailing newline, remove it
	out := tmp.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}

	buf.Write(out)
	return nil
}
