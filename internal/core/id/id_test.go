package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedUnique(t *testing.T) {
	a := MustParse("00000000-0000-0000-0000-000000000001")
	b := MustParse("00000000-0000-0000-0000-000000000002")
	c := MustParse("10000000-0000-0000-0000-000000000000")

	got := SortedUnique([]ID{c, a, b, a, c})

	assert.Equal(t, []ID{a, b, c}, got)
}

func TestNew_IsVersion7(t *testing.T) {
	v := New()
	assert.False(t, IsNil(v))
	assert.Equal(t, 7, int(v.Version()))
}
