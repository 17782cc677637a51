package models

import (
	"fmt"
	"strconv"
)

const (
	DefaultPage         = 1
	DefaultItemsPerPage = 10
	MaxItemsPerPage     = 100
)

type PageParams struct {
	Page         int
	ItemsPerPage int
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.ItemsPerPage
}

// ParsePageParams reads raw query values; empty values take the defaults.
func ParsePageParams(page, itemsPerPage string) (PageParams, error) {
	p := PageParams{Page: DefaultPage, ItemsPerPage: DefaultItemsPerPage}

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return p, fmt.Errorf("page must be a positive integer")
		}
		p.Page = n
	}

	if itemsPerPage != "" {
		n, err := strconv.Atoi(itemsPerPage)
		if err != nil || n < 1 || n > MaxItemsPerPage {
			return p, fmt.Errorf("items_per_page must be between 1 and %d", MaxItemsPerPage)
		}
		p.ItemsPerPage = n
	}

	return p, nil
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Items        []T   `json:"items"`
	TotalCount   int64 `json:"total_count"`
	Page         int   `json:"page"`
	ItemsPerPage int   `json:"items_per_page"`
	Pages        int64 `json:"pages"`
}

func NewPage[T any](items []T, total int64, params PageParams) Page[T] {
	if items == nil {
		items = []T{}
	}

	per := int64(params.ItemsPerPage)
	pages := int64(0)
	if per > 0 {
		pages = (total + per - 1) / per
	}

	return Page[T]{
		Items:        items,
		TotalCount:   total,
		Page:         params.Page,
		ItemsPerPage: params.ItemsPerPage,
		Pages:        pages,
	}
}
