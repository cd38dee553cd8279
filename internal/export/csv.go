// Package export writes canonical products as a Shopify product import CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"shopify-catalog/internal/catalog"
	"shopify-catalog/internal/normalize"
	"shopify-catalog/internal/types"
)

// Columns is the fixed Shopify column order.
var Columns = []string{
	"Handle", "Title", "Body (HTML)", "Vendor", "Product Category", "Type", "Tags", "Published",
	"Option1 Name", "Option1 Value", "Option2 Name", "Option2 Value", "Option3 Name", "Option3 Value",
	"Variant SKU", "Variant Grams", "Variant Inventory Tracker", "Variant Inventory Qty",
	"Variant Inventory Policy", "Variant Fulfillment Service", "Variant Price", "Variant Compare At Price",
	"Variant Requires Shipping", "Variant Taxable", "Variant Barcode",
	"Image Src", "Image Position", "Image Alt Text", "Gift Card",
	"SEO Title", "SEO Description", "Variant Image", "Variant Weight Unit", "Variant Tax Code",
	"Cost per item", "Status",
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[c] = i
	}
	return m
}()

type row []string

func newRow() row { return make(row, len(Columns)) }

func (r row) set(column, value string) { r[columnIndex[column]] = value }

func (r row) get(column string) string { return r[columnIndex[column]] }

// Exporter writes Shopify CSV files
type Exporter struct {
	logger types.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger types.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Write appends products to the CSV at path, creating it when missing.
// Rows sharing (Handle, Variant SKU, Image Position) keep only the last
// one written. It returns the number of data rows in the file.
func (e *Exporter) Write(path string, products []catalog.Product) (int, error) {
	existing, err := readRows(path)
	if err != nil {
		return 0, err
	}

	rows := dedupeRows(append(existing, Rows(products)...))

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := writeRows(f, rows); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}

	e.logger.Infof("Wrote %d rows (%d existing) for %d products to %s", len(rows), len(existing), len(products), path)
	return len(rows), nil
}

// Rows flattens products into CSV rows without the header: one row per
// variant, product-level fields on the first row only, then one row per
// extra image carrying just Handle, Image Src and Image Position.
func Rows(products []catalog.Product) [][]string {
	var out [][]string
	for _, p := range products {
		names := optionNames(p.Variants)
		images := productImages(p)

		for i, v := range p.Variants {
			r := newRow()
			r.set("Handle", p.Handle)
			if i == 0 {
				r.set("Title", p.Title)
				r.set("Body (HTML)", p.BodyHTML)
				r.set("Vendor", p.Vendor)
				r.set("Product Category", p.Category)
				r.set("Type", p.Type)
				r.set("Tags", strings.Join(p.Tags, ", "))
				r.set("Published", "TRUE")
				r.set("Gift Card", "FALSE")
				r.set("SEO Title", p.Title)
				r.set("Status", "active")
				if len(images) > 0 {
					r.set("Image Src", images[0])
					r.set("Image Position", "1")
					r.set("Image Alt Text", p.Title)
				}
			}

			values := optionValues(names, v)
			for j, name := range names {
				if i == 0 {
					r.set(fmt.Sprintf("Option%d Name", j+1), name)
				}
				r.set(fmt.Sprintf("Option%d Value", j+1), values[j])
			}

			r.set("Variant SKU", v.SKU)
			r.set("Variant Grams", "0")
			r.set("Variant Inventory Tracker", "shopify")
			r.set("Variant Inventory Qty", "1")
			r.set("Variant Inventory Policy", "deny")
			r.set("Variant Fulfillment Service", "manual")
			r.set("Variant Price", v.Price.StringFixed(2))
			if v.CompareAtPrice.GreaterThan(v.Price) {
				r.set("Variant Compare At Price", v.CompareAtPrice.StringFixed(2))
			}
			r.set("Variant Requires Shipping", "TRUE")
			r.set("Variant Taxable", "TRUE")
			if len(v.Images) > 0 {
				r.set("Variant Image", v.Images[0])
			}
			r.set("Variant Weight Unit", "kg")
			out = append(out, r)
		}

		for i := 1; i < len(images); i++ {
			r := newRow()
			r.set("Handle", p.Handle)
			r.set("Image Src", images[i])
			r.set("Image Position", strconv.Itoa(i+1))
			out = append(out, r)
		}
	}
	return out
}

// optionNames labels the option columns: Size and Color when any variant
// has them, or Shopify's Title placeholder for single-variant products.
func optionNames(variants []catalog.Variant) []string {
	var hasSize, hasColor bool
	for _, v := range variants {
		hasSize = hasSize || v.Size != ""
		hasColor = hasColor || v.Color != ""
	}
	var names []string
	if hasSize {
		names = append(names, "Size")
	}
	if hasColor {
		names = append(names, "Color")
	}
	if len(names) == 0 {
		names = []string{"Title"}
	}
	return names
}

func optionValues(names []string, v catalog.Variant) []string {
	values := make([]string, len(names))
	for i, name := range names {
		switch name {
		case "Size":
			values[i] = v.Size
		case "Color":
			values[i] = v.Color
		default:
			values[i] = "Default Title"
		}
	}
	return values
}

// productImages is every variant image in order, without repeats.
func productImages(p catalog.Product) []string {
	var all []string
	for _, v := range p.Variants {
		all = append(all, v.Images...)
	}
	return normalize.DedupeImages(all)
}

type rowKey struct {
	handle, sku, position string
}

func dedupeRows(rows [][]string) [][]string {
	last := make(map[rowKey]int, len(rows))
	for i, r := range rows {
		last[keyOf(r)] = i
	}
	out := make([][]string, 0, len(last))
	for i, r := range rows {
		if last[keyOf(r)] == i {
			out = append(out, r)
		}
	}
	return out
}

func keyOf(r row) rowKey {
	return rowKey{handle: r.get("Handle"), sku: r.get("Variant SKU"), position: r.get("Image Position")}
}

// readRows loads the data rows of an existing export, remapped to the
// current column order. A missing file has no rows.
func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	var out [][]string
	for _, record := range records[1:] {
		r := newRow()
		for i, col := range header {
			if idx, ok := columnIndex[strings.TrimSpace(col)]; ok && i < len(record) {
				r[idx] = record[i]
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
