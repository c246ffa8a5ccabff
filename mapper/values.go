// Package mapper turns upstream JSON records into local entities. Nothing here touches storage.
package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields is a decoded upstream record. Numbers stay json.Number.
type Fields map[string]interface{}

func decodeFields(raw []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var f Fields
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("record is not an object")
	}
	return f, nil
}

// String returns the first non-empty value among keys, trimmed.
func (f Fields) String(keys ...string) string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case bool:
			s = strconv.FormatBool(t)
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (f Fields) Decimal(keys ...string) decimal.Decimal {
	s := strings.ReplaceAll(f.String(keys...), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (f Fields) Bool(keys ...string) bool {
	v, _ := f.Flag(keys...)
	return v
}

// Flag is Bool that also reports whether any key held a recognisable value.
func (f Fields) Flag(keys ...string) (value, ok bool) {
	for _, k := range keys {
		switch t := f[k].(type) {
		case bool:
			return t, true
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "yes", "1", "y":
				return true, true
			case "false", "no", "0", "n":
				return false, true
			}
		case json.Number:
			return t.String() != "0", true
		}
	}
	return false, false
}

// CustomFields collects flat cf_* properties. The *_unformatted twins Zoho adds are dropped.
func CustomFields(f Fields) map[string]string {
	var out map[string]string
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.HasPrefix(k, "cf_") || strings.HasSuffix(k, "_unformatted") {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = f.String(k)
	}
	return out
}
