package postal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"500081", "500081"},
		{"500 081", "500081"},
		{"500-081", "500081"},
		{"  SW1A 1AA  ", "sw1a1aa"},
		{"", ""},
		{"   ", ""},
		{"!!! ---", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize(tc.raw), "Normalize(%q)", tc.raw)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, raw := range []string{"500 081", "SW1A 1AA", "110-011", ""} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("500 081", "500-081"))
	assert.True(t, Equal("500081", "500 081"))
	assert.True(t, Equal("SW1A 1AA", "sw1a1aa"))
	assert.False(t, Equal("500081", "560001"))
	// Two empty codes normalize equal; callers must treat that as "no
	// jurisdiction", not as a shared one.
	assert.True(t, Equal("", "   "))
}

func TestExtractPostalCode(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{"six digit pin", "12 MG Road, Hyderabad, Telangana 500034", "500034"},
		{"six digit wins over shorter runs", "Flat 12, Sector 4, Noida 201301", "201301"},
		{"five digit zip", "1600 Pennsylvania Ave, Washington DC 20500", "20500"},
		{"zip plus four keeps the five", "742 Evergreen Terrace, Springfield 12345-6789", "12345"},
		{"short numeric group", "House 4521, Old Town", "4521"},
		{"comma segment fallback", "Main Street, No clear numbers", "Noclearnumbers"},
		{"skips empty trailing segments", "Main Street, Somewhere, ,", "Somewhere"},
		{"symbols only", "!!! ---", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractPostalCode(tc.address))
		})
	}
}
