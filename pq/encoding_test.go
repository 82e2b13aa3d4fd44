package pq_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-One-And-Only-H/psycopg/pq"
)

func TestNormalizeEncoding(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"UTF8", "UTF8"},
		{"utf-8", "UTF8"},
		{"unicode", "UTF8"},
		{"latin1", "LATIN1"},
		{"iso-8859-5", "ISO_8859_5"},
		{"iso_8859_5", "ISO_8859_5"},
		{"win1252", "WIN1252"},
		{"euc_jp", "EUC_JP"},
		{"euc-jp", "EUC_JP"},
		{"sql_ascii", "SQL_ASCII"},
		{"shift_jis", "SJIS"},
		{"alt", "WIN866"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pq.NormalizeEncoding(tt.in), "%q", tt.in)
	}
}

func TestKnownEncoding(t *testing.T) {
	assert.True(t, pq.KnownEncoding("UTF8"))
	assert.True(t, pq.KnownEncoding("SQL_ASCII"))
	assert.True(t, pq.KnownEncoding("latin1"))
	assert.True(t, pq.KnownEncoding("big5"))
	assert.False(t, pq.KnownEncoding("EBCDIC"))
}

func TestDecodeText(t *testing.T) {
	// é in LATIN1 and in Windows-1251 Cyrillic.
	out, err := pq.DecodeText("LATIN1", []byte{0xe9})
	require.NoError(t, err)
	assert.Equal(t, "é", string(out))

	out, err = pq.DecodeText("WIN1251", []byte{0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2})
	require.NoError(t, err)
	assert.Equal(t, "Привет", string(out))

	_, err = pq.DecodeText("EBCDIC", []byte("x"))
	assert.Error(t, err)
}

func TestDecodeTextPassthrough(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0x00}

	out, err := pq.DecodeText("SQL_ASCII", raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	out, err = pq.DecodeText("UTF8", []byte("héllo"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", string(out))
}

func TestEncodeText(t *testing.T) {
	out, err := pq.EncodeText("LATIN1", []byte("café"))
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9}, out)

	// Unmappable rune.
	_, err = pq.EncodeText("LATIN1", []byte("Привет"))
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, enc := range []string{"LATIN1", "WIN1252", "KOI8R", "EUC_JP", "GB18030"} {
		t.Run(enc, func(t *testing.T) {
			var text string
			switch enc {
			case "KOI8R":
				text = "привет"
			case "EUC_JP":
				text = "こんにちは"
			case "GB18030":
				text = "你好"
			default:
				text = "grüße"
			}

			encoded, err := pq.EncodeText(enc, []byte(text))
			require.NoError(t, err)
			decoded, err := pq.DecodeText(enc, encoded)
			require.NoError(t, err)
			assert.Equal(t, text, string(decoded))
		})
	}
}
