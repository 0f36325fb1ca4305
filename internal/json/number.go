package json

import "strconv"

// parseInt parses a JSON number literal as an integer. A literal that
// carries a decimal point or exponent is parsed as a float and truncated,
// matching how a number field typed as an int behaves against
// encoding/json-produced data.
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// parseFloat parses a JSON number literal as a float64.
func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
