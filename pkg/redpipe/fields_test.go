package redpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		in    any
		enc   string
		out   any
	}{
		{"text", TextField, "héllo", "héllo", "héllo"},
		{"ascii", AsciiField, "plain", "plain", "plain"},
		{"binary", BinaryField, []byte{0xff, 0x00}, "\xff\x00", []byte{0xff, 0x00}},
		{"boolean true", BooleanField, true, "1", true},
		{"boolean false", BooleanField, false, "", false},
		{"integer", IntegerField, 42, "42", int64(42)},
		{"integer from string", IntegerField, " -7 ", "-7", int64(-7)},
		{"float", FloatField, 1.5, "1.5", 1.5},
		{"float from int", FloatField, 3, "3", 3.0},
		{"list", ListField, []any{"a", 1.0}, `["a",1]`, []any{"a", 1.0}},
		{"dict", DictField, map[string]any{"a": "b"}, `{"a":"b"}`, map[string]any{"a": "b"}},
		{"string list", StringListField, []string{"a", "b"}, "a,b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := tt.field.Encode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.enc, enc)

			dec, err := tt.field.Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.out, dec)
		})
	}
}

func TestFields_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		in    any
	}{
		{"text from int", TextField, 1},
		{"text invalid utf8", TextField, "\xff"},
		{"ascii non-ascii", AsciiField, "é"},
		{"binary from int", BinaryField, 1},
		{"boolean from string", BooleanField, "yes"},
		{"integer from float", IntegerField, 1.5},
		{"integer from junk", IntegerField, "abc"},
		{"float from junk", FloatField, "abc"},
		{"list from map", ListField, map[string]any{}},
		{"dict from list", DictField, []any{}},
		{"list from nil", ListField, nil},
		{"string list with comma", StringListField, []string{"a,b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.field.Encode(tt.in)
			assert.ErrorIs(t, err, ErrInvalidFieldValue)
		})
	}
}

func TestFields_DecodeErrors(t *testing.T) {
	_, err := IntegerField.Decode("x")
	assert.ErrorIs(t, err, ErrInvalidFieldValue)

	_, err = FloatField.Decode("x")
	assert.ErrorIs(t, err, ErrInvalidFieldValue)

	_, err = DictField.Decode("[1]")
	assert.ErrorIs(t, err, ErrInvalidFieldValue)

	v, err := StringListField.Decode("")
	require.NoError(t, err)
	assert.Equal(t, []string{}, v)
}
