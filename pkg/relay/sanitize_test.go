package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "clean name untouched", in: "img-U123_m1.jpg", expected: "img-U123_m1.jpg"},
		{name: "illegal characters", in: `a/b?c<d>e\f:g*h|i"j`, expected: "a_b_c_d_e_f_g_h_i_j"},
		{name: "control characters", in: "a\x00b\x1fcd", expected: "a_b_c_d"},
		{name: "reserved device name", in: "CON", expected: "_"},
		{name: "reserved device name with extension", in: "com1.txt", expected: "_"},
		{name: "reserved name as prefix is kept", in: "console.log", expected: "console.log"},
		{name: "underscore runs collapse", in: "a__b____c", expected: "a_b_c"},
		{name: "illegal run collapses", in: "a?*b", expected: "a_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilenameIsIdempotent(t *testing.T) {
	inputs := []string{
		`a/b?c<d>e\f:g*h|i"j`,
		"CON.pdf",
		"a__b____c",
		"file-U1_m1-report.pdf",
		"\x01\x02\x03",
	}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		assert.Equal(t, once, SanitizeFilename(once), "input %q", in)
	}
}
