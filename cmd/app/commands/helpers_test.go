package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
		want  string
	}{
		{name: "empty", value: []byte{}, want: "(empty)"},
		{name: "nil", value: nil, want: "(empty)"},
		{name: "one character", value: []byte("a"), want: "***"},
		{name: "three characters", value: []byte("abc"), want: "***"},
		{name: "four characters", value: []byte("abcd"), want: "ab***cd"},
		{name: "long value", value: []byte("AKIA1234567890yz"), want: "AK***yz"},
		{name: "multibyte runes", value: []byte("héllo wörld"), want: "hé***ld"},
		{name: "three multibyte runes", value: []byte("äöü"), want: "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mask(tt.value))
		})
	}
}

func TestReadSecretValue(t *testing.T) {
	t.Run("piped input drops one trailing newline", func(t *testing.T) {
		stdio := IOTuple{Reader: strings.NewReader("s3cr3t\n\n"), Writer: &bytes.Buffer{}}

		value, err := readSecretValue(stdio, "Secret value: ")
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cr3t\n"), value)
	})

	t.Run("windows line ending", func(t *testing.T) {
		stdio := IOTuple{Reader: strings.NewReader("s3cr3t\r\n"), Writer: &bytes.Buffer{}}

		value, err := readSecretValue(stdio, "Secret value: ")
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cr3t"), value)
	})

	t.Run("no prompt for piped input", func(t *testing.T) {
		var out bytes.Buffer
		stdio := IOTuple{Reader: strings.NewReader("value"), Writer: &out}

		_, err := readSecretValue(stdio, "Secret value: ")
		require.NoError(t, err)
		assert.Empty(t, out.String())
	})

	t.Run("no reader", func(t *testing.T) {
		_, err := readSecretValue(IOTuple{Writer: &bytes.Buffer{}}, "Secret value: ")
		assert.Error(t, err)
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "y", input: "y\n", want: true},
		{name: "yes uppercase", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty answer", input: "\n", want: false},
		{name: "eof without newline", input: "y", want: true},
		{name: "no input", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := confirm(IOTuple{Reader: strings.NewReader(tt.input), Writer: &out}, "Continue?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Continue? [y/N]: ")
		})
	}

	t.Run("nil reader", func(t *testing.T) {
		ok, err := confirm(IOTuple{Writer: &bytes.Buffer{}}, "Continue?")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("text"))
	assert.NoError(t, validateFormat("json"))

	err := validateFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format: yaml")
}

func testMetadata() []*secretsDomain.SecretMetadata {
	kind := "token"
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []*secretsDomain.SecretMetadata{
		{Name: "aws-key", Kind: &kind, CreatedAt: createdAt, UpdatedAt: createdAt.Add(time.Hour)},
		{Name: "db-password", CreatedAt: createdAt, UpdatedAt: createdAt},
	}
}

func TestOutputMetadata(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, outputMetadata(&out, testMetadata(), "text"))

		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		require.Len(t, lines, 6)
		assert.True(t, strings.HasPrefix(lines[0], "╭"))
		assert.Contains(t, lines[1], "NAME")
		assert.Contains(t, lines[1], "UPDATED AT")
		assert.Contains(t, lines[3], "aws-key")
		assert.Contains(t, lines[3], "token")
		assert.Contains(t, lines[3], "2026-01-02T03:04:05Z")
		assert.Contains(t, lines[3], "2026-01-02T04:04:05Z")
		assert.True(t, strings.HasPrefix(lines[4], "│ db-password"))
		assert.True(t, strings.HasPrefix(lines[5], "╰"))
	})

	t.Run("empty table", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, outputMetadata(&out, nil, "text"))
		assert.Equal(t, "no secrets found\n", out.String())
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, outputMetadata(&out, testMetadata(), "json"))

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "aws-key", decoded[0]["name"])
		assert.Equal(t, "token", decoded[0]["kind"])
		assert.NotContains(t, decoded[1], "kind")
	})

	t.Run("empty json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, outputMetadata(&out, nil, "json"))
		assert.Equal(t, "[]\n", out.String())
	})
}
