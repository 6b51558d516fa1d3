package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		rawPage    string
		wantNumber int
		wantPages  int
		wantOffset int
		wantLimit  int
	}{
		{name: "missing page", total: 15, rawPage: "", wantNumber: 1, wantPages: 2, wantOffset: 0, wantLimit: 10},
		{name: "second page", total: 15, rawPage: "2", wantNumber: 2, wantPages: 2, wantOffset: 10, wantLimit: 5},
		{name: "non numeric", total: 15, rawPage: "abc", wantNumber: 1, wantPages: 2, wantOffset: 0, wantLimit: 10},
		{name: "float string", total: 15, rawPage: "2.0", wantNumber: 1, wantPages: 2, wantOffset: 0, wantLimit: 10},
		{name: "beyond last clamps", total: 15, rawPage: "99", wantNumber: 2, wantPages: 2, wantOffset: 10, wantLimit: 5},
		{name: "zero clamps to last", total: 25, rawPage: "0", wantNumber: 3, wantPages: 3, wantOffset: 20, wantLimit: 5},
		{name: "negative clamps to last", total: 25, rawPage: "-1", wantNumber: 3, wantPages: 3, wantOffset: 20, wantLimit: 5},
		{name: "exact multiple", total: 20, rawPage: "2", wantNumber: 2, wantPages: 2, wantOffset: 10, wantLimit: 10},
		{name: "empty sequence", total: 0, rawPage: "3", wantNumber: 1, wantPages: 1, wantOffset: 0, wantLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(tt.total, tt.rawPage, DefaultPerPage)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantPages, p.NumPages)
			assert.Equal(t, tt.wantOffset, p.Offset)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.total, p.Count)
		})
	}
}

func TestPageNavigation(t *testing.T) {
	first := Paginate(25, "1", DefaultPerPage)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, 2, first.NextNumber())

	middle := Paginate(25, "2", DefaultPerPage)
	assert.True(t, middle.HasNext())
	assert.True(t, middle.HasPrevious())
	assert.Equal(t, 1, middle.PreviousNumber())

	last := Paginate(25, "3", DefaultPerPage)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasOtherPages())
	assert.Equal(t, []int{1, 2, 3}, last.Numbers())

	only := Paginate(3, "", DefaultPerPage)
	assert.False(t, only.HasOtherPages())
}

func TestPaginateDefaultPerPage(t *testing.T) {
	p := Paginate(30, "1", 0)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 3, p.NumPages)
}

func TestSlice(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	for k := 1; k <= 3; k++ {
		p := Paginate(len(items), string(rune('0'+k)), DefaultPerPage)
		got := Slice(items, p)

		start := 10*k - 10
		end := 10 * k
		if end > len(items) {
			end = len(items)
		}
		assert.Equal(t, items[start:end], got, "page %d", k)
	}

	assert.Empty(t, Slice([]int{}, Paginate(0, "", DefaultPerPage)))
}
