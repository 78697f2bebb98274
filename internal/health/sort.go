package health

import (
	"sort"
	"time"
)

// SortByStart orders items by their start date, ascending or descending, using key to
// break ties in a stable, repeatable way.
func SortByStart[T any](items []T, ascending bool, start func(T) time.Time, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := start(items[i]), start(items[j])
		if !si.Equal(sj) {
			if ascending {
				return si.Before(sj)
			}
			return si.After(sj)
		}
		if ascending {
			return key(items[i]) < key(items[j])
		}
		return key(items[i]) > key(items[j])
	})
}

// Truncate returns at most limit leading items.
func Truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
