package model

// 商品一覧の1ページあたりの件数
const CatalogPageSize = 2

// PageResult は件数から計算するページング情報。保存はしない。
type PageResult struct {
	CurrentPage     int   `json:"current_page"`
	PageSize        int   `json:"page_size"`
	TotalItems      int64 `json:"total_items"`
	LastPage        int   `json:"last_page"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
	NextPage        int   `json:"next_page"`
	PreviousPage    int   `json:"previous_page"`
}

// NewPageResult はページング情報を計算する。
// requestedPage が 0 以下なら 1 ページ目とみなす。最終ページより先は lastPage+1（空のページ）に丸める。
func NewPageResult(totalItems int64, pageSize int, requestedPage int) PageResult {
	if pageSize < 1 {
		pageSize = 1
	}
	if totalItems < 0 {
		totalItems = 0
	}
	size := int64(pageSize)

	lastPage := 0
	if totalItems > 0 {
		lastPage = int((totalItems + size - 1) / size)
	}

	// 掛け算があふれないように先に丸める
	if requestedPage < 1 {
		requestedPage = 1
	}
	if requestedPage > lastPage+1 {
		requestedPage = lastPage + 1
	}

	return PageResult{
		CurrentPage:     requestedPage,
		PageSize:        pageSize,
		TotalItems:      totalItems,
		LastPage:        lastPage,
		HasNextPage:     int64(requestedPage)*size < totalItems,
		HasPreviousPage: requestedPage > 1,
		NextPage:        requestedPage + 1,
		PreviousPage:    requestedPage - 1,
	}
}

// Offset はこのページの先頭（含む）。範囲は [Offset, Offset+PageSize)。
func (p PageResult) Offset() int {
	return (p.CurrentPage - 1) * p.PageSize
}
