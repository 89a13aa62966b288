package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "book", escapeLike("book"))
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
}
