package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}, p)
	assert.True(t, p.HasNext())
	assert.False(t, NewPagination(3, 20, 45).HasNext())
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}
