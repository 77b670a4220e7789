package patternscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndex(t *testing.T) {
	li := newLineIndex("first\r\nsecond\nthird\n")

	assert.Equal(t, 0, li.lineOf(0))
	assert.Equal(t, 1, li.lineOf(7))
	assert.Equal(t, 2, li.lineOf(14))
	assert.Equal(t, "first", li.text(0))
	assert.Equal(t, "third", li.text(2))
	assert.Equal(t, "", li.text(3))
	assert.Equal(t, []string{"second", "third"}, li.window(1, 5))
	assert.Nil(t, li.window(-3, 0))
}
