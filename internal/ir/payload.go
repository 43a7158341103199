package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// PayloadKind names the variant held by a Data value.
type PayloadKind string

const (
	PayloadEmpty    PayloadKind = ""
	PayloadTabular  PayloadKind = "tabular"
	PayloadDocument PayloadKind = "document"
	PayloadOpaque   PayloadKind = "opaque"
	PayloadLiteral  PayloadKind = "literal"
)

// Payload is a sealed interface over the entity data variants.
// Only Tabular, Document, Opaque and Literal implement it.
//
// Consumers switch on the concrete type:
//
//	switch p := e.Data.Payload().(type) {
//	case ir.Tabular:
//	case ir.Document:
//	case ir.Opaque:
//	case ir.Literal:
//	case nil:
//	}
type Payload interface {
	Kind() PayloadKind
	clonePayload() Payload
}

// Tabular is a table with named columns. Cells hold any JSON value;
// decoded numbers are json.Number.
type Tabular struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

func (Tabular) Kind() PayloadKind { return PayloadTabular }

func (t Tabular) clonePayload() Payload {
	out := Tabular{Headers: slices.Clone(t.Headers)}
	if t.Rows != nil {
		out.Rows = make([][]any, len(t.Rows))
		for i, row := range t.Rows {
			out.Rows[i] = cloneJSONValue(row).([]any)
		}
	}
	return out
}

// Document is free text, usually markdown.
type Document struct {
	Text string
}

func (Document) Kind() PayloadKind { return PayloadDocument }

func (d Document) clonePayload() Payload { return d }

// Opaque is any other client-defined JSON object. Numbers decode as
// json.Number so values survive a round trip unchanged.
type Opaque map[string]any

func (Opaque) Kind() PayloadKind { return PayloadOpaque }

func (o Opaque) clonePayload() Payload {
	if o == nil {
		return Opaque(nil)
	}
	return Opaque(cloneJSONValue(map[string]any(o)).(map[string]any))
}

// Literal is a top-level JSON array, number or boolean. It encodes as the
// bare value.
type Literal struct {
	Value any
}

func (Literal) Kind() PayloadKind { return PayloadLiteral }

func (l Literal) clonePayload() Payload { return Literal{Value: cloneJSONValue(l.Value)} }

// Data wraps an optional Payload and owns its JSON encoding.
// The zero value is empty and encodes as null.
type Data struct {
	payload Payload
}

// NewData wraps p. A nil p yields empty Data.
func NewData(p Payload) Data {
	return Data{payload: p}
}

// Payload returns the wrapped variant, or nil when empty.
func (d Data) Payload() Payload {
	return d.payload
}

// Kind returns the variant kind, PayloadEmpty when no payload is set.
func (d Data) Kind() PayloadKind {
	if d.payload == nil {
		return PayloadEmpty
	}
	return d.payload.Kind()
}

// IsEmpty reports whether no payload is set.
func (d Data) IsEmpty() bool {
	return d.payload == nil
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	if d.payload == nil {
		return Data{}
	}
	return Data{payload: d.payload.clonePayload()}
}

// MarshalJSON encodes the payload in the record shape: tabular as an object
// with headers and rows, a document as a string, opaque as the object itself
// and a literal as the bare value.
func (d Data) MarshalJSON() ([]byte, error) {
	switch p := d.payload.(type) {
	case nil:
		return []byte("null"), nil
	case Tabular:
		if p.Headers == nil {
			p.Headers = []string{}
		}
		if p.Rows == nil {
			p.Rows = [][]any{}
		}
		return json.Marshal(struct {
			Headers []string `json:"headers"`
			Rows    [][]any  `json:"rows"`
		}{p.Headers, p.Rows})
	case Document:
		return json.Marshal(p.Text)
	case Opaque:
		return json.Marshal(map[string]any(p))
	case Literal:
		return json.Marshal(p.Value)
	default:
		return nil, fmt.Errorf("unsupported payload type %T", p)
	}
}

// UnmarshalJSON decodes the record shape back into a variant. An object with
// exactly the headers and rows keys, string headers and array rows is
// Tabular. Any other object is Opaque. Arrays, numbers and booleans are
// Literal.
func (d *Data) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		d.payload = nil
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode document payload: %w", err)
		}
		d.payload = Document{Text: s}
		return nil

	case '{':
		if t, ok := decodeTabular(b); ok {
			d.payload = t
			return nil
		}
		var m map[string]any
		if err := decodeNumbers(b, &m); err != nil {
			return fmt.Errorf("decode opaque payload: %w", err)
		}
		d.payload = Opaque(m)
		return nil

	default:
		var v any
		if err := decodeNumbers(b, &v); err != nil {
			return fmt.Errorf("decode opaque payload: %w", err)
		}
		d.payload = Literal{Value: v}
		return nil
	}
}

func decodeTabular(b []byte) (Tabular, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return Tabular{}, false
	}
	if len(raw) != 2 || raw["headers"] == nil || raw["rows"] == nil {
		return Tabular{}, false
	}
	var t Tabular
	if err := json.Unmarshal(raw["headers"], &t.Headers); err != nil {
		return Tabular{}, false
	}
	if err := decodeNumbers(raw["rows"], &t.Rows); err != nil {
		return Tabular{}, false
	}
	return t, true
}

func decodeNumbers(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

func cloneJSONValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = cloneJSONValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneJSONValue(elem)
		}
		return out
	default:
		return val
	}
}
