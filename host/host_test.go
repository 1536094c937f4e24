package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"default", "hw:0,0"}, splitLines("default\nhw:0,0\n"))
	assert.Equal(t, []string{"default", "hw:0,0"}, splitLines("default\nhw:0,0"))
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"only"}, splitLines("only"))
}
