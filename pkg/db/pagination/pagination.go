package pagination

import "errors"

var ErrInvalidPage = errors.New("invalid_page")

// Page is the envelope returned by every paginated listing.
type Page[T any] struct {
	CurrentPage  int   `json:"currentPage"`
	Results      []T   `json:"results"`
	TotalPages   int   `json:"totalPages"`
	TotalResults int64 `json:"totalResults"`
}

type Request struct {
	PageNo   int `form:"pageNo,default=1"`
	PageSize int `form:"pageSize,default=10"`
}

func (r Request) Validate() error {
	if r.PageNo < 1 || r.PageSize < 1 {
		return ErrInvalidPage
	}
	return nil
}

// TotalPages is ceil(total/size); zero results yield zero pages.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return int(pages)
}

func New[T any](results []T, pageNo, pageSize int, total int64) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{
		CurrentPage:  pageNo,
		Results:      results,
		TotalPages:   TotalPages(total, pageSize),
		TotalResults: total,
	}
}

// Map converts the results of a page, keeping the envelope.
func Map[T any, R any](page Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(page.Results))
	for _, item := range page.Results {
		out = append(out, fn(item))
	}
	return Page[R]{
		CurrentPage:  page.CurrentPage,
		Results:      out,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
}
