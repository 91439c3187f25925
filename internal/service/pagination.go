package service

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// normalizePage 把页码和每页数量修正到合法范围。
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func offsetOf(page, pageSize int) int {
	return (page - 1) * pageSize
}
