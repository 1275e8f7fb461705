package models

import "strconv"

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID parses a decimal surrogate key. It returns false for anything that
// is not a positive integer.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
