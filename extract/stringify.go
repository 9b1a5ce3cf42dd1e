package extract

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// stringify renders v the way JavaScript's JSON.stringify(v, null, indent)
// does: object keys keep their source order, a repeated key keeps its first
// position and its last value, and numbers use the shortest JavaScript form
// (1.0e3 becomes 1000). An empty indent gives the compact form.
func stringify(v gjson.Result, indent string) string {
	var buf bytes.Buffer
	writeValue(&buf, v, indent, "")
	return buf.String()
}

func writeValue(buf *bytes.Buffer, v gjson.Result, indent, prefix string) {
	switch {
	case v.IsObject():
		writeObject(buf, v, indent, prefix)
	case v.IsArray():
		writeArray(buf, v, indent, prefix)
	case v.Type == gjson.String:
		writeQuoted(buf, v.Str)
	case v.Type == gjson.Number:
		if math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
			buf.WriteString("null")
			return
		}
		buf.WriteString(jsNumber(v.Num))
	case v.Type == gjson.True:
		buf.WriteString("true")
	case v.Type == gjson.False:
		buf.WriteString("false")
	default:
		buf.WriteString("null")
	}
}

func writeObject(buf *bytes.Buffer, v gjson.Result, indent, prefix string) {
	var (
		order  []string
		values = make(map[string]gjson.Result)
	)
	v.ForEach(func(k, val gjson.Result) bool {
		name := k.String()
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = val
		return true
	})
	if len(order) == 0 {
		buf.WriteString("{}")
		return
	}

	inner := prefix + indent
	buf.WriteByte('{')
	for i, name := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, indent, inner)
		writeQuoted(buf, name)
		buf.WriteByte(':')
		if indent != "" {
			buf.WriteByte(' ')
		}
		writeValue(buf, values[name], indent, inner)
	}
	newline(buf, indent, prefix)
	buf.WriteByte('}')
}

func writeArray(buf *bytes.Buffer, v gjson.Result, indent, prefix string) {
	elems := v.Array()
	if len(elems) == 0 {
		buf.WriteString("[]")
		return
	}

	inner := prefix + indent
	buf.WriteByte('[')
	for i, elem := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, indent, inner)
		writeValue(buf, elem, indent, inner)
	}
	newline(buf, indent, prefix)
	buf.WriteByte(']')
}

func newline(buf *bytes.Buffer, indent, prefix string) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(prefix)
}

// writeQuoted escapes only what JSON.stringify escapes; HTML-significant
// characters and non-ASCII text are written as-is.
func writeQuoted(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[c>>4])
				buf.WriteByte(hex[c&0xf])
				continue
			}
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}

// jsNumber formats f like JavaScript's Number.prototype.toString.
func jsNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// Go writes e+07 / e-07; JavaScript writes e+7 / e-7.
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

// jsString converts v the way JavaScript's String(v) does, which is how a
// non-string value ends up in a template literal.
func jsString(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "[object Object]"
	case v.IsArray():
		elems := v.Array()
		parts := make([]string, len(elems))
		for i, elem := range elems {
			if elem.Type != gjson.Null {
				parts[i] = jsString(elem)
			}
		}
		return strings.Join(parts, ",")
	case v.Type == gjson.String:
		return v.Str
	case v.Type == gjson.Number:
		return jsNumber(v.Num)
	case v.Type == gjson.True:
		return "true"
	case v.Type == gjson.False:
		return "false"
	case v.Type == gjson.Null:
		return "null"
	default:
		return "undefined"
	}
}
