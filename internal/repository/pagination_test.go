package repository

import "testing"

func TestNormalizePageRequest(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{name: "defaults when zero", in: PageRequest{}, want: PageRequest{Page: DefaultPage, PageSize: DefaultPageSize}},
		{name: "negative page floored", in: PageRequest{Page: -2, PageSize: 50}, want: PageRequest{Page: DefaultPage, PageSize: 50}},
		{name: "zero size defaulted", in: PageRequest{Page: 3}, want: PageRequest{Page: 3, PageSize: DefaultPageSize}},
		{name: "oversized capped", in: PageRequest{Page: 1, PageSize: MaxPageSize * 2}, want: PageRequest{Page: 1, PageSize: MaxPageSize}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePageRequest(tc.in); got != tc.want {
				t.Fatalf("normalizePageRequest(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCalcTotalPages(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{5, 0, 0},
		{1, 20, 1},
		{200, 20, 10},
		{201, 20, 11},
	}
	for _, tc := range tests {
		if got := calcTotalPages(tc.total, tc.pageSize); got != tc.want {
			t.Fatalf("calcTotalPages(%d, %d) = %d, want %d", tc.total, tc.pageSize, got, tc.want)
		}
	}
}

func FuzzNormalizePageRequestBounds(f *testing.F) {
	f.Add(0, 0)
	f.Add(-10, -10)
	f.Add(7, MaxPageSize+1)
	f.Fuzz(func(t *testing.T, page, pageSize int) {
		got := normalizePageRequest(PageRequest{Page: page, PageSize: pageSize})
		if got.Page < 1 {
			t.Fatalf("page must be >= 1, got %d", got.Page)
		}
		if got.PageSize < 1 || got.PageSize > MaxPageSize {
			t.Fatalf("page_size out of bounds: %d", got.PageSize)
		}
	})
}
