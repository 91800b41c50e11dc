package frontmatter

import (
	"bytes"
	"encoding/json"
	"iter"

	"github.com/cockroachdb/errors"
)

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value Value
}

// Record is an ordered mapping from field name to Value. Insertion order is
// preserved; re-setting an existing key keeps its original position.
// The zero Record is empty and ready to use.
type Record struct {
	fields []Field
	pos    map[string]int
}

// NewRecord returns a record holding fields in the given order.
func NewRecord(fields ...Field) *Record {
	r := &Record{}
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Set stores v under key.
func (r *Record) Set(key string, v Value) {
	if r.pos == nil {
		r.pos = make(map[string]int)
	}
	if i, ok := r.pos[key]; ok {
		r.fields[i].Value = v
		return
	}
	r.pos[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: v})
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	i, ok := r.pos[key]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Has reports whether key is present, even with an Absent value.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Delete removes key, keeping the order of the remaining fields.
func (r *Record) Delete(key string) {
	if r == nil {
		return
	}
	i, ok := r.pos[key]
	if !ok {
		return
	}
	r.fields = append(r.fields[:i], r.fields[i+1:]...)
	delete(r.pos, key)
	for j := i; j < len(r.fields); j++ {
		r.pos[r.fields[j].Key] = j
	}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Key
	}
	return out
}

// Fields returns a copy of the fields in order.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// All iterates over the fields in order.
func (r *Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if r == nil {
			return
		}
		for _, f := range r.fields {
			if !yield(f.Key, f.Value) {
				return
			}
		}
	}
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := &Record{}
	for k, v := range r.All() {
		if items, ok := v.AsList(); ok {
			v = List(items...)
		}
		out.Set(k, v)
	}
	return out
}

// Equal reports whether r and o hold the same fields in the same order.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	for i := range r.Len() {
		a, b := r.fields[i], o.fields[i]
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value.Interface())
		if err != nil {
			return nil, errors.Wrapf(err, "frontmatter: marshal field %q", f.Key)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, keeping key order. Strings,
// numbers, booleans, null and arrays of strings are accepted.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "frontmatter: decode record")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("frontmatter: record must be a JSON object")
	}

	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "frontmatter: decode key")
		}
		key, _ := tok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return errors.Wrapf(err, "frontmatter: decode field %q", key)
		}
		v, err := valueFromJSON(raw)
		if err != nil {
			return errors.Wrapf(err, "frontmatter: field %q", key)
		}
		r.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, "frontmatter: decode record end")
	}
	return nil
}

func valueFromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Absent(), nil
	case string:
		return Text(x), nil
	case bool:
		return Boolean(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, it := range x {
			s, ok := it.(string)
			if !ok {
				return Value{}, errors.Newf("list items must be strings, got %T", it)
			}
			items = append(items, s)
		}
		return List(items...), nil
	default:
		return Value{}, errors.Newf("unsupported value of type %T", raw)
	}
}
