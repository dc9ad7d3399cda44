package domain

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestDefaultReferenceTable(t *testing.T) {
	table := DefaultReferenceTable()

	assert.Equal(t, []string{"CO", "NO2", "O3", "PM2.5", "SO2"}, table.Codes())

	for _, code := range table.Codes() {
		entry, ok := table.Lookup(code)
		require.True(t, ok)
		assert.Equal(t, code, entry.Code)
		assert.Equal(t, code, entry.DisplayName)
		assert.NotEmpty(t, entry.FullName)
		assert.NotEmpty(t, entry.Unit)
		assert.Positive(t, entry.Reference)
	}

	pm, ok := table.Lookup("PM2.5")
	require.True(t, ok)
	assert.Equal(t, 35.0, pm.Reference)

	_, ok = table.Lookup("PM")
	assert.False(t, ok, "aliases are not table keys")
}

func TestLoadReferenceTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{name: "not json", json: `{`, want: "decode reference table"},
		{name: "empty", json: `{}`, want: "empty"},
		{name: "zero ref", json: `{"O3": {"fullname": "ozone", "unit": "ppb", "ref": 0}}`, want: "positive"},
		{name: "negative ref", json: `{"O3": {"fullname": "ozone", "unit": "ppb", "ref": -1}}`, want: "positive"},
		{name: "missing unit", json: `{"O3": {"fullname": "ozone", "ref": 10}}`, want: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReferenceTable(stringsReader(tt.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
