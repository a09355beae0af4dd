package handler

import (
	"net/http"
	"strconv"
)

type PageConfig struct {
	DefaultSize int
	MaxSize     int
}

type pageDTO[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

func (c PageConfig) parse(r *http.Request) (page, size int, fields []FieldError) {
	page, size = 0, c.DefaultSize
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields = append(fields, FieldError{Field: "page", Message: "must be a non-negative integer"})
		} else {
			page = n
		}
	}

	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields = append(fields, FieldError{Field: "size", Message: "must be a positive integer"})
		} else {
			size = min(n, c.MaxSize)
		}
	}

	return page, size, fields
}

// paginate slices a zero-based page out of items. A page past the end is
// empty, not an error.
func paginate[T any](items []T, page, size int) pageDTO[T] {
	out := pageDTO[T]{Items: []T{}, Page: page, Size: size, Total: len(items)}
	if len(items) == 0 || size < 1 || page > (len(items)-1)/size {
		return out
	}
	from := page * size
	to := min(from+size, len(items))
	out.Items = items[from:to]
	return out
}
