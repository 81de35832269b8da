package stepgraph

import (
	"strconv"
	"strings"
)

// FormatDeletionBlocked renders the sentence shown when deletedStepNum cannot
// be removed because the steps in blocking (non-empty, ascending) use it.
//
//	Cannot delete Step 1 because it is used by Step 2
//	Cannot delete Step 1 because it is used by Steps 2 and 3
//	Cannot delete Step 1 because it is used by Steps 2, 3, and 4
func FormatDeletionBlocked(deletedStepNum int, blocking []int) string {
	word := "Steps"
	if len(blocking) == 1 {
		word = "Step"
	}
	return "Cannot delete Step " + strconv.Itoa(deletedStepNum) +
		" because it is used by " + word + " " + joinStepNums(blocking)
}

// joinStepNums lists numbers with "and" before the last one and an Oxford
// comma when there are three or more.
func joinStepNums(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}
