package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 10, 0},
		{1, 1, 1},
		{3, 1, 3},
		{10, 3, 4},
		{9, 3, 3},
		{11, 10, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalPages(tc.total, tc.size), "total=%d size=%d", tc.total, tc.size)
	}
}

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, Request{PageNo: 1, PageSize: 1}.Validate())
	assert.ErrorIs(t, Request{PageNo: 0, PageSize: 1}.Validate(), ErrInvalidPage)
	assert.ErrorIs(t, Request{PageNo: 1, PageSize: 0}.Validate(), ErrInvalidPage)
}

func TestNewNeverReturnsNilResults(t *testing.T) {
	page := New[int](nil, 1, 5, 0)
	assert.NotNil(t, page.Results)
	assert.Equal(t, 0, page.TotalPages)
}
