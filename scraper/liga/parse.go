package liga

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePrice converts a locale-formatted price such as "R$ 1.234,56" to
// 1234.56: currency symbol stripped, thousands dots removed, decimal
// comma converted.
func ParsePrice(raw string) (float64, error) {
	t := strings.ReplaceAll(raw, "R$", "")
	t = strings.ReplaceAll(t, ".", "")
	t = strings.ReplaceAll(t, ",", ".")
	t = strings.TrimSpace(t)

	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q", raw)
	}
	return v, nil
}

// ParseQuantity extracts the first integer token from a stock text such
// as "8 unids.". Text without digits ("sem estoque") means zero stock,
// not an error.
func ParseQuantity(raw string) int {
	for _, tok := range strings.Fields(raw) {
		if n, err := strconv.Atoi(tok); err == nil {
			return n
		}
	}
	return 0
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
