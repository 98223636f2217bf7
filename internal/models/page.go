package models

// PageRequest is an offset-style window (from, size) mapped onto fixed pages.
type PageRequest struct {
	From int
	Size int
}

func (p PageRequest) Valid() bool {
	return p.From >= 0 && p.Size > 0
}

// Page is the zero-based page index containing From.
func (p PageRequest) Page() int {
	if p.Size <= 0 || p.From <= 0 {
		return 0
	}
	return p.From / p.Size
}

func (p PageRequest) Offset() int {
	return p.Page() * p.Size
}
