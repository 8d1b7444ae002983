package redpipe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field converts between Go values and the strings redis stores.
type Field interface {
	Encode(v any) (string, error)
	Decode(s string) (any, error)
}

// Built-in field codecs.
var (
	TextField       Field = textField{}
	AsciiField      Field = asciiField{}
	BinaryField     Field = binaryField{}
	BooleanField    Field = booleanField{}
	IntegerField    Field = integerField{}
	FloatField      Field = floatField{}
	ListField       Field = jsonField{kind: "list"}
	DictField       Field = jsonField{kind: "dict"}
	StringListField Field = stringListField{}
)

func invalidField(v any, kind string) error {
	return ErrInvalidFieldValue.WithDetails("%T %v is not a valid %s", v, v, kind)
}

// textField stores UTF-8 strings.
type textField struct{}

func (textField) Encode(v any) (string, error) {
	switch x := v.(type) {
	case string:
		if !utf8.ValidString(x) {
			return "", invalidField(v, "text")
		}
		return x, nil
	case []byte:
		if !utf8.Valid(x) {
			return "", invalidField(v, "text")
		}
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", invalidField(v, "text")
	}
}

func (textField) Decode(s string) (any, error) {
	return s, nil
}

type asciiField struct{}

func (asciiField) Encode(v any) (string, error) {
	s, err := textField{}.Encode(v)
	if err != nil {
		return "", invalidField(v, "ascii")
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return "", invalidField(v, "ascii")
		}
	}
	return s, nil
}

func (asciiField) Decode(s string) (any, error) {
	return s, nil
}

// binaryField stores raw bytes and decodes to []byte.
type binaryField struct{}

func (binaryField) Encode(v any) (string, error) {
	switch x := v.(type) {
	case []byte:
		return string(x), nil
	case string:
		return x, nil
	default:
		return "", invalidField(v, "binary")
	}
}

func (binaryField) Decode(s string) (any, error) {
	return []byte(s), nil
}

// booleanField stores true as "1" and false as the empty string.
type booleanField struct{}

func (booleanField) Encode(v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", invalidField(v, "boolean")
	}
	if b {
		return "1", nil
	}
	return "", nil
}

func (booleanField) Decode(s string) (any, error) {
	return s != "", nil
}

// integerField stores base-10 integers and decodes to int64.
type integerField struct{}

func (integerField) Encode(v any) (string, error) {
	switch x := v.(type) {
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		if x > math.MaxInt64 {
			return "", invalidField(v, "integer")
		}
		return strconv.FormatUint(x, 10), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return "", invalidField(v, "integer")
		}
		return strconv.FormatInt(n, 10), nil
	default:
		return "", invalidField(v, "integer")
	}
}

func (integerField) Decode(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, ErrInvalidFieldValue.WithCause(err).WithDetails("%q is not an integer", s)
	}
	return n, nil
}

// floatField decodes to float64.
type floatField struct{}

func (floatField) Encode(v any) (string, error) {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return "", invalidField(v, "float")
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	default:
		return "", invalidField(v, "float")
	}
}

func (floatField) Decode(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrInvalidFieldValue.WithCause(err).WithDetails("%q is not a float", s)
	}
	return f, nil
}

// jsonField stores JSON arrays ("list") or objects ("dict").
type jsonField struct {
	kind string
}

func (f jsonField) Encode(v any) (string, error) {
	if v == nil {
		return "", invalidField(v, f.kind)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", ErrInvalidFieldValue.WithCause(err).WithDetails("%T is not json encodable", v)
	}
	want := byte('[')
	if f.kind == "dict" {
		want = '{'
	}
	if len(b) == 0 || b[0] != want {
		return "", invalidField(v, f.kind)
	}
	return string(b), nil
}

func (f jsonField) Decode(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var out any
	if f.kind == "dict" {
		m := map[string]any{}
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, ErrInvalidFieldValue.WithCause(err)
		}
		out = m
	} else {
		var l []any
		if err := json.Unmarshal([]byte(s), &l); err != nil {
			return nil, ErrInvalidFieldValue.WithCause(err)
		}
		out = l
	}
	return out, nil
}

// stringListField stores a list of strings joined by commas.
type stringListField struct{}

func (stringListField) Encode(v any) (string, error) {
	l, ok := v.([]string)
	if !ok {
		return "", invalidField(v, "string list")
	}
	for _, s := range l {
		if strings.Contains(s, ",") {
			return "", invalidField(v, "string list")
		}
	}
	return strings.Join(l, ","), nil
}

func (stringListField) Decode(s string) (any, error) {
	if s == "" {
		return []string{}, nil
	}
	return strings.Split(s, ","), nil
}
