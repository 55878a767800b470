package ecodevices

import (
	"sort"
	"strconv"
	"strings"

	"github.com/clbanning/mxj/v2"
	"golang.org/x/net/html/charset"
)

// responseTag is the element wrapping the device's tag/value pairs.
const responseTag = "response"

func init() {
	// Older firmwares declare ISO-8859-1 in the XML prolog.
	mxj.XmlCharsetReader = charset.NewReaderLabel
}

// RawStatus maps XML tag names to their untyped text values.
type RawStatus map[string]string

// Get returns the value for tag and whether it was present.
func (s RawStatus) Get(tag string) (string, bool) {
	v, ok := s[tag]
	return v, ok
}

// Keys returns the tag names in sorted order.
func (s RawStatus) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Float parses the value of tag as a number.
// ok is false when the tag is absent.
func (s RawStatus) Float(tag string) (v float64, ok bool, err error) {
	raw, ok := s[tag]
	if !ok {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return v, true, err
}

// ptr returns a copy of the value for tag, or nil when absent.
func (s RawStatus) ptr(tag string) *string {
	v, ok := s[tag]
	if !ok {
		return nil
	}
	return &v
}

// merge copies every entry of other into s.
func (s RawStatus) merge(other RawStatus) {
	for k, v := range other {
		s[k] = v
	}
}

// ParseStatus decodes an Eco-Devices XML document and returns the
// children of its response element.
func ParseStatus(body []byte) (RawStatus, error) {
	m, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, &ProtocolError{Reason: "malformed XML", Err: err}
	}

	resp, ok := findResponse(m)
	if !ok {
		return nil, &ProtocolError{Reason: "no response element"}
	}

	status := RawStatus{}
	fields, ok := resp.(map[string]interface{})
	if !ok {
		// <response/> or a text-only response element
		return status, nil
	}

	for tag, val := range fields {
		if tag == "#text" || strings.HasPrefix(tag, "-") {
			continue // text or attribute of <response>
		}
		if text, ok := leafText(val); ok {
			status[tag] = text
		}
	}
	return status, nil
}

// findResponse looks for the response element at the document root
// or directly below it.
func findResponse(m mxj.Map) (interface{}, bool) {
	if v, ok := m[responseTag]; ok {
		return v, true
	}
	for _, root := range m {
		children, ok := root.(map[string]interface{})
		if !ok {
			continue
		}
		if v, ok := children[responseTag]; ok {
			return v, true
		}
	}
	return nil, false
}

// leafText extracts the text of a leaf element. Nested elements are
// not leaves. For a repeated tag the last occurrence wins.
func leafText(val interface{}) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case []interface{}:
		if len(v) == 0 {
			return "", false
		}
		return leafText(v[len(v)-1])
	case map[string]interface{}:
		if text, ok := v["#text"].(string); ok {
			return text, true
		}
		for k := range v {
			if !strings.HasPrefix(k, "-") {
				return "", false
			}
		}
		// only attributes, no text
		return "", true
	default:
		return "", false
	}
}
