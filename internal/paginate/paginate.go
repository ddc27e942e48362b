// Package paginate splits an ordered paragraph sequence into fixed-size pages.
package paginate

import "strings"

// DefaultPageSize is the number of paragraphs shown on one page.
const DefaultPageSize = 10

// Separator joins paragraphs inside a page.
const Separator = "\n\n"

// Page is the rendered window for one page index.
type Page struct {
	Index   int
	Content string
	// First and Last are the half-open paragraph range [First, Last).
	First, Last int
	// Final is set on the last page that still carries content.
	Final bool
	// End signals an index past the last paragraph; Content is empty.
	End bool
}

// Paginator computes pages for a fixed page size.
type Paginator struct {
	size int
}

// New returns a Paginator; sizes below one fall back to DefaultPageSize.
func New(size int) Paginator {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Paginator{size: size}
}

// Size reports the configured paragraphs per page.
func (p Paginator) Size() int { return p.size }

// Page returns page index of paragraphs. Indexes at or past the end yield End.
func (p Paginator) Page(paragraphs []string, index int) Page {
	if index < 0 {
		index = 0
	}
	start := index * p.size
	if start >= len(paragraphs) {
		return Page{Index: index, First: len(paragraphs), Last: len(paragraphs), End: true}
	}
	end := min(start+p.size, len(paragraphs))
	return Page{
		Index:   index,
		Content: strings.Join(paragraphs[start:end], Separator),
		First:   start,
		Last:    end,
		Final:   start+p.size >= len(paragraphs),
	}
}

// IsEnd reports whether index is past the last paragraph.
func (p Paginator) IsEnd(total, index int) bool {
	return index*p.size >= total
}

// Count returns the number of pages holding content.
func (p Paginator) Count(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.size - 1) / p.size
}
