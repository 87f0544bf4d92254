package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain ascii passes through",
			input:    "widget-factory",
			expected: "widget-factory",
		},
		{
			name:     "slash is escaped",
			input:    "acme/widget",
			expected: "acme%2Fwidget",
		},
		{
			name:     "space is escaped",
			input:    "my repo",
			expected: "my%20repo",
		},
		{
			name:     "leading dot is escaped",
			input:    ".config",
			expected: "%2Econfig",
		},
		{
			name:     "interior dot passes through",
			input:    "repo.git",
			expected: "repo.git",
		},
		{
			name:     "percent is escaped",
			input:    "100%done",
			expected: "100%25done",
		},
		{
			name:     "empty name",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Encode(tt.input))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	names := []string{
		"simple",
		"acme/widget",
		"with space",
		"..leading.dots",
		"ends.with.dot.",
		"uniçødé",
		"café",
		"emoji \U0001f600 name",
		"mixed/..%41 tricks",
		"",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			encoded := Encode(name)
			assert.Equal(t, name, Decode(encoded))
		})
	}
}

func TestNormalize(t *testing.T) {
	// "é" spelled precomposed vs combining must resolve to one name.
	precomposed := "caf\u00e9"
	combining := "cafe\u0301"
	require.NotEqual(t, precomposed, combining)
	assert.Equal(t, Normalize(precomposed), Normalize(combining))

	t.Run("encode itself stays lossless", func(t *testing.T) {
		assert.Equal(t, combining, Decode(Encode(combining)))
		assert.NotEqual(t, Encode(precomposed), Encode(combining))
	})

	t.Run("mangle collapses spellings", func(t *testing.T) {
		assert.Equal(t, Mangle(precomposed), Mangle(combining))
	})
}

func TestDecodeMalformedEscapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "truncated escape at end",
			input:    "repo%2",
			expected: "repo%2",
		},
		{
			name:     "bare percent at end",
			input:    "repo%",
			expected: "repo%",
		},
		{
			name:     "non-hex digits kept literally",
			input:    "repo%ZZname",
			expected: "repo%ZZname",
		},
		{
			name:     "lowercase hex accepted",
			input:    "acme%2fwidget",
			expected: "acme/widget",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decode(tt.input))
		})
	}
}

func TestMangle(t *testing.T) {
	t.Run("short safe name used verbatim", func(t *testing.T) {
		assert.Equal(t, "widget-factory", Mangle("widget-factory"))
	})

	t.Run("unsafe name gets hash suffix", func(t *testing.T) {
		got := Mangle("acme/widget")
		assert.Equal(t, "acme_widget-", got[:len("acme_widget-")])
		assert.Len(t, got, len("acme_widget")+1+8)
	})

	t.Run("overlong name keeps prefix and suffix", func(t *testing.T) {
		long := strings.Repeat("abcdefghij", 10)
		got := Mangle(long)
		assert.LessOrEqual(t, len(got), 32)
		assert.True(t, strings.HasPrefix(got, long[:12]))
		assert.True(t, strings.HasSuffix(got, long[len(long)-9:]))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Mangle("acme/widget"), Mangle("acme/widget"))
	})

	t.Run("distinct inputs stay distinct", func(t *testing.T) {
		assert.NotEqual(t, Mangle("acme/widget"), Mangle("acme widget"))
	})

	t.Run("empty name", func(t *testing.T) {
		got := Mangle("")
		assert.Len(t, got, 8)
	})

	t.Run("leading dot never hidden", func(t *testing.T) {
		got := Mangle(".config")
		assert.NotEqual(t, byte('.'), got[0])
	})
}

func TestFromLegacy(t *testing.T) {
	name := FromLegacy("acme%2Fwidget")
	assert.Equal(t, "acme/widget", name)

	t.Run("idempotent once migrated", func(t *testing.T) {
		assert.Equal(t, name, FromLegacy(Encode(name)))
	})
}
