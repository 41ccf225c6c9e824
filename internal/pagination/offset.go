package pagination

// Defaults for offset pagination.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// NormalizeLimit applies def to non-positive limits and clamps to max.
func NormalizeLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// NormalizeOffset clamps negative offsets to zero.
func NormalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// Slice returns the [offset, offset+limit) window of items. It never panics:
// an offset past the end yields an empty, non-nil slice.
func Slice[T any](items []T, offset, limit int) []T {
	offset = NormalizeOffset(offset)
	if offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) || end < offset {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
