// Package payload gives safe, defaulting access to raw site payloads.
//
// A Payload is whatever a source handed us: a JSON document from a REST or
// search API, or a tree assembled by an HTML adapter. Every getter tolerates
// missing, null or oddly typed fields and falls back to a zero value, so
// normalisation code never has to check the shape before reading.
package payload

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Payload is a read-only view over one raw record.
type Payload struct {
	r gjson.Result
}

// FromJSON wraps a JSON document. Invalid JSON yields an empty payload.
func FromJSON(data []byte) Payload {
	if !gjson.ValidBytes(data) {
		return Payload{}
	}
	return Payload{r: gjson.ParseBytes(data)}
}

// FromString wraps a JSON document held in a string.
func FromString(s string) Payload {
	return FromJSON([]byte(s))
}

// FromValue wraps an in-memory tree of maps, slices and scalars.
func FromValue(v any) Payload {
	data, err := json.Marshal(v)
	if err != nil {
		return Payload{}
	}
	return FromJSON(data)
}

// FromResult wraps an already parsed gjson result.
func FromResult(r gjson.Result) Payload {
	return Payload{r: r}
}

// Result exposes the underlying gjson value.
func (p Payload) Result() gjson.Result {
	return p.r
}

// Raw returns the JSON text of the payload.
func (p Payload) Raw() string {
	return p.r.Raw
}

// IsEmpty reports whether the payload holds nothing at all.
func (p Payload) IsEmpty() bool {
	return !p.r.Exists() || p.r.Type == gjson.Null
}

// Get returns the payload at path. An empty path returns p itself.
func (p Payload) Get(path string) Payload {
	if path == "" {
		return p
	}
	if !p.r.Exists() {
		return Payload{}
	}
	return Payload{r: p.r.Get(path)}
}

// Exists reports whether path is present and not null.
func (p Payload) Exists(path string) bool {
	v := p.Get(path)
	return !v.IsEmpty()
}

// String returns the first non-blank string found at any of paths.
// Numbers are rendered in their JSON form, objects and arrays are skipped.
func (p Payload) String(paths ...string) string {
	for _, path := range paths {
		if s := scalarString(p.Get(path).r); s != "" {
			return s
		}
	}
	return ""
}

// Strings returns the string list stored at path. A JSON array yields its
// scalar members (or the "title"/"name" of object members), a plain string
// is split on commas.
func (p Payload) Strings(path string) []string {
	v := p.Get(path).r
	var out []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			s := scalarString(item)
			if s == "" && item.IsObject() {
				s = firstString(item, "title", "name", "value", "label")
			}
			if s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		for _, part := range strings.Split(v.String(), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case v.Type == gjson.Number:
		out = append(out, v.Raw)
	}
	return out
}

// Array returns the members of the array at path. A single object is
// treated as a one element array.
func (p Payload) Array(path string) []Payload {
	v := p.Get(path).r
	if v.IsObject() {
		return []Payload{{r: v}}
	}
	if !v.IsArray() {
		return nil
	}
	items := v.Array()
	out := make([]Payload, 0, len(items))
	for _, item := range items {
		out = append(out, Payload{r: item})
	}
	return out
}

// Bool reads an availability style flag. The second return value is false
// when the field is absent or cannot be interpreted, so callers can tell
// "explicitly false" from "unknown".
func (p Payload) Bool(path string) (bool, bool) {
	v := p.Get(path).r
	switch v.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	case gjson.Number:
		return v.Float() > 0, true
	case gjson.String:
		switch normalizeFlag(v.String()) {
		case "true", "yes", "1", "instock", "available", "in_stock", "onsale", "limitedavailability":
			return true, true
		case "false", "no", "0", "outofstock", "out_of_stock", "soldout", "sold_out", "unavailable", "discontinued":
			return false, true
		}
	}
	return false, false
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Decimal reads a number stored either as a JSON number or as a string
// like "$1,299.00". The second return value is false when the field is
// absent or unparsable.
func (p Payload) Decimal(path string) (decimal.Decimal, bool) {
	v := p.Get(path).r
	switch v.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(v.Raw)
		if err != nil {
			return decimal.NewFromFloat(v.Float()), true
		}
		return d, true
	case gjson.String:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return decimal.Zero, false
		}
		// 1.299,00 style values are not used by any configured source
		s = numberPattern.FindString(strings.ReplaceAll(s, ",", ""))
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// FirstDecimal returns the first parsable number found at any of paths.
func (p Payload) FirstDecimal(paths ...string) (decimal.Decimal, bool) {
	for _, path := range paths {
		if d, ok := p.Decimal(path); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.String())
	case gjson.Number:
		return v.Raw
	}
	return ""
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

// normalizeFlag folds schema.org style values ("https://schema.org/InStock")
// and free text ("In Stock") into a comparable token.
func normalizeFlag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return strings.ReplaceAll(s, " ", "")
}
