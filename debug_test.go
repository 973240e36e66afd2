package vt100

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeBytes(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected string
	}{
		"printable": {input: "hello", expected: "hello"},
		"sequence":  {input: "\x1b[2J\n", expected: "ESC [2J LF"},
		"delete":    {input: "a\x7fb", expected: "a DEL b"},
		"high":      {input: "\xa4\xa2", expected: "0xa4 0xa2"},
		"empty":     {input: "", expected: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DescribeBytes([]byte(tt.input)))
		})
	}
}
