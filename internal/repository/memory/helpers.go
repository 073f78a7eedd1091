package memory

import (
	"slices"
	"strings"
)

func sortByID[T any](items []T, id func(T) uint64) {
	slices.SortFunc(items, func(a, b T) int {
		switch ia, ib := id(a), id(b); {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		}
		return 0
	})
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
