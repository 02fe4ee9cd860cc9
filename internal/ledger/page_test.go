package ledger

import "testing"

func TestPaginate(t *testing.T) {
	t.Parallel()

	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name          string
		page, limit   int
		wantLen       int
		wantPage      int
		wantLimit     int
		wantTotalPage int
	}{
		{name: "first page", page: 1, limit: 10, wantLen: 10, wantPage: 1, wantLimit: 10, wantTotalPage: 3},
		{name: "last partial page", page: 3, limit: 10, wantLen: 5, wantPage: 3, wantLimit: 10, wantTotalPage: 3},
		{name: "page past the end", page: 10, limit: 10, wantLen: 0, wantPage: 10, wantLimit: 10, wantTotalPage: 3},
		{name: "clamps page below 1", page: 0, limit: 10, wantLen: 10, wantPage: 1, wantLimit: 10, wantTotalPage: 3},
		{name: "clamps limit above 100", page: 1, limit: 1000, wantLen: 25, wantPage: 1, wantLimit: 100, wantTotalPage: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, pagination := Paginate(items, tt.page, tt.limit)
			if len(got) != tt.wantLen {
				t.Fatalf("len(got) = %d, want %d", len(got), tt.wantLen)
			}
			if pagination.Page != tt.wantPage || pagination.Limit != tt.wantLimit || pagination.TotalPages != tt.wantTotalPage {
				t.Fatalf("pagination = %+v", pagination)
			}
			if pagination.TotalItems != 25 {
				t.Fatalf("TotalItems = %d, want 25", pagination.TotalItems)
			}
		})
	}
}
