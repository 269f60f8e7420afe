package host

import "strconv"

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatNumber renders an indicator value without trailing zeros.
func FormatNumber(v float64) string {
	return formatNumber(v)
}
