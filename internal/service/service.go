// Package service implements the application's business operations on top of
// the shared *gorm.DB handle. Every service receives the handle explicitly;
// none of them keeps state of its own.
package service

// PageSize is the fixed page size for all paginated listings
const PageSize = 20

// TotalPages returns the number of pages needed for total rows
func TotalPages(total int64) int {
	pages := int(total) / PageSize
	if int(total)%PageSize != 0 {
		pages++
	}
	return pages
}

// offsetFor normalizes a 1-indexed page number into a row offset
func offsetFor(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}
