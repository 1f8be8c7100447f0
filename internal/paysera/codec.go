package paysera

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Param is one request field; a nil Value is left out of the payload
type Param struct {
	Key   string
	Value any
}

// Params keeps fields in insertion order, which the provider signs over
type Params []Param

// Set replaces the value of an existing key in place or appends a new one
func (p Params) Set(key string, value any) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Key: key, Value: value})
}

type MalformedPayloadError struct {
	Reason string
	Err    error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed payload: " + e.Reason
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// Encode serializes params as a form query string, base64 encodes it and
// swaps '+' and '/' for '-' and '_'. Padding is kept.
func Encode(params Params) string {
	parts := make([]string, 0, len(params))
	seen := make(map[string]int, len(params))
	for _, p := range params {
		value, ok := formatValue(p.Value)
		if !ok {
			continue
		}
		pair := formEscape(p.Key) + "=" + formEscape(value)
		if i, dup := seen[p.Key]; dup {
			parts[i] = pair
			continue
		}
		seen[p.Key] = len(parts)
		parts = append(parts, pair)
	}
	query := strings.Join(parts, "&")
	encoded := base64.StdEncoding.EncodeToString([]byte(query))
	return strings.NewReplacer("+", "-", "/", "_").Replace(encoded)
}

// Decode reverses Encode. The last value wins for repeated keys.
func Decode(data string) (map[string]string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, &MalformedPayloadError{Reason: "empty data"}
	}
	std := strings.NewReplacer("-", "+", "_", "/").Replace(data)
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(std, "="))
	if err != nil {
		return nil, &MalformedPayloadError{Reason: "invalid base64", Err: err}
	}
	if !utf8.Valid(raw) {
		return nil, &MalformedPayloadError{Reason: "payload is not utf-8 text"}
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, &MalformedPayloadError{Reason: "invalid query string", Err: err}
	}
	out := make(map[string]string, len(values))
	for key, list := range values {
		if len(list) > 0 {
			out[key] = list[len(list)-1]
		}
	}
	return out, nil
}

// Sign is md5(data + password) as lowercase hex, the digest the provider's
// protocol requires for ss1
func Sign(data, password string) string {
	sum := md5.Sum([]byte(data + password))
	return hex.EncodeToString(sum[:])
}

// Verify compares a provided signature with the expected one. Length is
// checked first; content is compared in constant time, ignoring case.
func Verify(provided, data, password string) bool {
	expected := Sign(data, password)
	got := strings.ToLower(strings.TrimSpace(provided))
	if len(got) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

func formatValue(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		return value, true
	case *string:
		if value == nil {
			return "", false
		}
		return *value, true
	case bool:
		if value {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(value), true
	case int32:
		return strconv.FormatInt(int64(value), 10), true
	case int64:
		return strconv.FormatInt(value, 10), true
	case uint:
		return strconv.FormatUint(uint64(value), 10), true
	case uint64:
		return strconv.FormatUint(value, 10), true
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case fmt.Stringer:
		return value.String(), true
	}
	return fmt.Sprint(v), true
}

// formEscape matches the form urlencoded serializer used by browsers:
// '*' stays literal and '~' is escaped, the reverse of url.QueryEscape
func formEscape(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "~", "%7E")
	return strings.ReplaceAll(escaped, "%2A", "*")
}
