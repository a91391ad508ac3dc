package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type record map[string]json.RawMessage

func decodeRecord(raw json.RawMessage) (record, error) {
	var rec record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errNotObject
	}
	return rec, nil
}

// text returns the first non-empty rendering among keys.
func (r record) text(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		if s := render(v); s != "" {
			return s
		}
	}
	return ""
}

func (r record) optionalText(keys ...string) *string {
	s := r.text(keys...)
	if s == "" {
		return nil
	}
	return &s
}

// render turns any JSON value into text. Objects yield their name-like field
// when there is one and their JSON form otherwise. NUL bytes are dropped since
// Postgres text columns reject them.
func render(v json.RawMessage) string {
	var x any
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return ""
	}
	s := renderValue(x)
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
	}
	return s
}

func renderValue(x any) string {
	switch t := x.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		for _, k := range []string{"name", "display_name", "title"} {
			if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		if len(t) == 0 {
			return ""
		}
		b, _ := json.Marshal(t)
		return string(b)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := renderValue(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
