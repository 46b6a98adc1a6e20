package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleLen(t *testing.T) {
	assert.Equal(t, 0, visibleLen(""))
	assert.Equal(t, 5, visibleLen("hello"))
	assert.Equal(t, 2, visibleLen("\x1b[31mab\x1b[0m"))
	assert.Equal(t, 3, visibleLen("|0⟩"))
}

func TestSpliceLineAt(t *testing.T) {
	tests := []struct {
		name    string
		bg      string
		overlay string
		x       int
		want    string
	}{
		{"middle", "abcdef", "XY", 2, "abXYef"},
		{"start", "abcdef", "XY", 0, "XYcdef"},
		{"past end pads", "ab", "XY", 4, "ab  XY"},
		{"escape in prefix", "\x1b[1mab\x1b[0mcd", "X", 2, "\x1b[1mabX\x1b[0md"},
		{"covered escape kept", "ab\x1b[31mcd\x1b[0m", "XY", 1, "aXY\x1b[31md\x1b[0m"},
		{"styled overlay", "abcd", "\x1b[1mX\x1b[0m", 1, "a\x1b[1mX\x1b[0mcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spliceLineAt(tt.bg, tt.overlay, tt.x))
		})
	}
}

func TestOverlayAt(t *testing.T) {
	bg := "aaaa\nbbbb\ncccc"
	assert.Equal(t, "aaaa\nbXYb\ncZWc", overlayAt(bg, "XY\nZW", 1, 1))
	assert.Equal(t, "aaaa\nbbbb\ncXYc", overlayAt(bg, "XY\nZW", 1, 2), "rows past the background are dropped")
}
