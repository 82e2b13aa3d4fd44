package pq_test

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-One-And-Only-H/psycopg/pq"
)

func TestEscapeLiteral(t *testing.T) {
	e := pq.NewEscaping(nil)

	tests := []struct {
		in   string
		want string
	}{
		{``, `''`},
		{`hello`, `'hello'`},
		{`o'clock`, `'o''clock'`},
		{`back\slash`, `E'back\\slash'`},
		{`both'\`, `E'both''\\'`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(e.EscapeLiteral([]byte(tt.in))), "%q", tt.in)
	}
}

func TestEscapeString(t *testing.T) {
	e := pq.NewEscaping(nil)

	assert.Equal(t, `hello`, e.EscapeString(`hello`))
	assert.Equal(t, `o''clock`, e.EscapeString(`o'clock`))
	assert.Equal(t, `back\slash`, e.EscapeString(`back\slash`))
}

func TestEscapeIdentifier(t *testing.T) {
	e := pq.NewEscaping(nil)

	assert.Equal(t, `"simple"`, string(e.EscapeIdentifier([]byte("simple"))))
	assert.Equal(t, `"with ""quotes"""`, string(e.EscapeIdentifier([]byte(`with "quotes"`))))
}

func TestEscapeByteaHex(t *testing.T) {
	e := pq.NewEscaping(nil)

	assert.Equal(t, `\x`, string(e.EscapeBytea(nil)))
	assert.Equal(t, `\x0001ff`, string(e.EscapeBytea([]byte{0x00, 0x01, 0xff})))

	modern := pq.NewEscaping(semver.MustParse("14.5"))
	assert.Equal(t, `\x6162`, string(modern.EscapeBytea([]byte("ab"))))
}

func TestEscapeByteaLegacyOctal(t *testing.T) {
	e := pq.NewEscaping(semver.MustParse("8.4.22"))

	assert.Equal(t, `abc`, string(e.EscapeBytea([]byte("abc"))))
	assert.Equal(t, `\000a\377`, string(e.EscapeBytea([]byte{0x00, 'a', 0xff})))
	assert.Equal(t, `a\\b`, string(e.EscapeBytea([]byte(`a\b`))))
}

func TestUnescapeBytea(t *testing.T) {
	e := pq.NewEscaping(nil)

	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{"hex empty", `\x`, []byte{}},
		{"hex", `\x0001ff`, []byte{0x00, 0x01, 0xff}},
		{"hex upper", `\x00AB`, []byte{0x00, 0xab}},
		{"hex whitespace", "\\x00 01\tff", []byte{0x00, 0x01, 0xff}},
		{"octal empty", ``, []byte{}},
		{"octal plain", `abc`, []byte("abc")},
		{"octal escapes", `\000a\377`, []byte{0x00, 'a', 0xff}},
		{"octal backslash", `a\\b`, []byte(`a\b`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.UnescapeBytea([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnescapeByteaInvalid(t *testing.T) {
	e := pq.NewEscaping(nil)

	for _, in := range []string{`\x0`, `\xgg`, `\12`, `\9`, `trailing\`} {
		_, err := e.UnescapeBytea([]byte(in))
		assert.Error(t, err, "%q", in)
	}
}

func TestEscapeByteaRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x01, '\\', '\'', 'a', 0x7f, 0x80, 0xff}

	for _, version := range []string{"8.4.22", "9.0.0", "14.5"} {
		e := pq.NewEscaping(semver.MustParse(version))
		got, err := e.UnescapeBytea(e.EscapeBytea(data))
		require.NoError(t, err, version)
		assert.Equal(t, data, got, version)
	}
}
