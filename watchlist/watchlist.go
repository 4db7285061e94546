// Package watchlist loads the card watch-list from a delimited text file.
package watchlist

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/oDuPrado/web-busca/models"
)

// Load reads a CSV of columns nome/colecao/numero (header required,
// ';' or ',' separated) and returns the valid items. Rows missing a
// field are skipped, not fatal.
func Load(path string) ([]models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("watchlist: read %q: %w", path, err)
	}

	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comma = detectSeparator(string(data))
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("watchlist: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("watchlist: %q is empty", path)
	}

	cols := map[string]int{}
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"nome", "colecao", "numero"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("watchlist: missing column %q", required)
		}
	}

	var items []models.Item
	for _, row := range records[1:] {
		it := models.Item{
			Name:       field(row, cols["nome"]),
			Collection: field(row, cols["colecao"]),
			Number:     field(row, cols["numero"]),
		}
		if it.Validate() != nil {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// detectSeparator prefers ';' and falls back to ',' when the first line
// only carries commas.
func detectSeparator(data string) rune {
	line, _, _ := strings.Cut(data, "\n")
	if strings.Contains(line, ",") && !strings.Contains(line, ";") {
		return ','
	}
	return ';'
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
