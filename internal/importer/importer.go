package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// CartWriter receives imported lines. Lines for a product already in the
// cart are merged by the writer.
type CartWriter interface {
	Add(ctx context.Context, item domain.LineItem) domain.Cart
}

// CSVImporter reads cart exports with the columns
// productId,title,name,image,price,quantity and adds each row to a cart.
// Column order is taken from the header row.
type CSVImporter struct {
	reader *csv.Reader
	cart   CartWriter
}

func NewCSVImporter(r io.Reader, cart CartWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, cart: cart}
}

var requiredColumns = []string{"productId", "price", "quantity"}

// Run adds every row to the cart and returns how many rows were imported.
// Blank rows are skipped. The first malformed row stops the import; rows
// before it stay in the cart.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}

		line, _ := i.reader.FieldPos(0)
		item, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		i.cart.Add(ctx, item)
		imported++
	}
	return imported, nil
}

func parseRow(record []string, index map[string]int) (domain.LineItem, error) {
	productID, err := strconv.Atoi(pick(record, index, "productId"))
	if err != nil || productID <= 0 {
		return domain.LineItem{}, fmt.Errorf("invalid productId %q", pick(record, index, "productId"))
	}
	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil || price.IsNegative() {
		return domain.LineItem{}, fmt.Errorf("invalid price %q", pick(record, index, "price"))
	}
	quantity, err := strconv.Atoi(pick(record, index, "quantity"))
	if err != nil || quantity < 1 {
		return domain.LineItem{}, fmt.Errorf("invalid quantity %q", pick(record, index, "quantity"))
	}

	title := pick(record, index, "title")
	name := pick(record, index, "name")
	if name == "" {
		name = title
	}
	return domain.LineItem{
		ProductID: productID,
		Title:     title,
		Name:      name,
		Image:     pick(record, index, "image"),
		Price:     price,
		Quantity:  quantity,
	}, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
