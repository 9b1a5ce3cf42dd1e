package models

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// DedupeKeys collapses duplicate keys of a JSON object so the last value
// wins while each key keeps its first position, which is how JSON.parse
// reads such objects. gjson and sjson act on the first occurrence, so bodies
// must pass through here before either touches them.
//
// Non-objects and objects without duplicates are returned as-is.
func DedupeKeys(raw []byte) []byte {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return raw
	}

	var (
		order  []string
		keyRaw = make(map[string]string)
		values = make(map[string]string)
		dup    bool
	)
	root.ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		if _, seen := values[name]; seen {
			dup = true
		} else {
			order = append(order, name)
			keyRaw[name] = k.Raw
		}
		values[name] = v.Raw
		return true
	})
	if !dup {
		return raw
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(keyRaw[name])
		buf.WriteByte(':')
		buf.WriteString(values[name])
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
