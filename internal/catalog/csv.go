package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// LoadCSV reads items from a file with the header
// id,name,description,price,image,sizes (sizes separated by ';').
func LoadCSV(r io.Reader) ([]domain.CatalogItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may have trailing commas
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"id", "name", "price"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var items []domain.CatalogItem
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++
		if isBlank(record) {
			continue
		}
		item, err := parseRow(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// FromCSV loads and validates a catalog in one step.
func FromCSV(r io.Reader) (*Catalog, error) {
	items, err := LoadCSV(r)
	if err != nil {
		return nil, err
	}
	return New(items)
}

func parseRow(record []string, index map[string]int) (domain.CatalogItem, error) {
	id, err := strconv.Atoi(pick(record, index, "id"))
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("invalid id: %w", err)
	}
	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("invalid price for item %d: %w", id, err)
	}
	item := domain.CatalogItem{
		ID:          id,
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		UnitPrice:   price,
		ImageRef:    pick(record, index, "image"),
	}
	if sizes := pick(record, index, "sizes"); sizes != "" {
		for _, s := range strings.Split(sizes, ";") {
			if s = strings.TrimSpace(s); s != "" {
				item.SizeVariants = append(item.SizeVariants, s)
			}
		}
	}
	return item, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
