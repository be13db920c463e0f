package types

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"
)

// Record is a single vulnerability as returned by the API. Fields keep the
// order in which they appeared in the response.
type Record struct {
	keys   []string
	values map[string]gjson.Result
}

func NewRecord() Record {
	return Record{values: map[string]gjson.Result{}}
}

// ParseRecord builds a Record from a JSON object.
func ParseRecord(obj gjson.Result) (Record, error) {
	if !obj.IsObject() {
		return Record{}, xerrors.Errorf("record must be a JSON object, got %s", obj.Type)
	}
	r := NewRecord()
	obj.ForEach(func(key, value gjson.Result) bool {
		r.set(key.String(), value)
		return true
	})
	return r, nil
}

func (r *Record) set(key string, value gjson.Result) {
	if r.values == nil {
		r.values = map[string]gjson.Result{}
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// SetString overwrites key in place, or appends it when it is new.
func (r *Record) SetString(key, value string) {
	b, _ := json.Marshal(value)
	r.set(key, gjson.Result{Type: gjson.String, Str: value, Raw: string(b)})
}

func (r Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

func (r Record) Len() int {
	return len(r.keys)
}

func (r Record) Get(key string) (gjson.Result, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Text returns the value of key as report cell text. Missing and null values
// are empty, strings are unquoted, nested values are compact JSON and the rest
// is the raw JSON literal.
func (r Record) Text(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	return ValueText(v)
}

func ValueText(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.JSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return v.Raw
		}
		return buf.String()
	default:
		return v.Raw
	}
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, xerrors.Errorf("failed to marshal key %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		raw := r.values[key].Raw
		if raw == "" {
			raw = "null"
		}
		buf.WriteString(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return xerrors.New("invalid JSON")
	}
	parsed, err := ParseRecord(gjson.ParseBytes(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
