// Package pagination splits an already ordered sequence into fixed size pages.
package pagination

import "strconv"

// DefaultPerPage is the number of posts shown on every listing page.
const DefaultPerPage = 10

// Page describes one page of a sequence of Count items.
type Page struct {
	Number   int
	NumPages int
	Count    int
	PerPage  int
	Offset   int
	Limit    int
}

// Paginate resolves rawPage against a sequence of total items.
//
// A missing or non-integer page yields the first page; a page past the end,
// or below 1, yields the last page. An empty sequence still has one page.
func Paginate(total int, rawPage string, perPage int) Page {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if total < 0 {
		total = 0
	}

	numPages := (total + perPage - 1) / perPage
	if numPages == 0 {
		numPages = 1
	}

	number, err := strconv.Atoi(rawPage)
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	offset := (number - 1) * perPage
	limit := perPage
	if offset+limit > total {
		limit = total - offset
	}

	return Page{
		Number:   number,
		NumPages: numPages,
		Count:    total,
		PerPage:  perPage,
		Offset:   offset,
		Limit:    limit,
	}
}

func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

// NextNumber returns the following page number; only meaningful when HasNext.
func (p Page) NextNumber() int { return p.Number + 1 }

// PreviousNumber returns the preceding page number; only meaningful when HasPrevious.
func (p Page) PreviousNumber() int { return p.Number - 1 }

// Numbers lists every page number, for rendering page links.
func (p Page) Numbers() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Slice returns the window of items belonging to the page. items must hold
// the whole sequence the page was computed for.
func Slice[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
