// Package normalize turns raw site payloads into canonical products.
//
// The Builder reads a payload through a source's declarative Schema and
// resolves identity, description, classification, tags, variants, prices
// and images. DedupeVariants and DedupeImages enforce uniqueness, and Merge
// folds per-colourway records into one product. Everything here is pure and
// in-memory; a Builder may be shared between goroutines.
package normalize

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"shopify-catalog/internal/catalog"
	"shopify-catalog/internal/payload"
)

// Skip reasons. Build returns exactly one of these when a record cannot
// become a product; none of them is fatal to a batch.
var (
	ErrMissingHandle     = errors.New("missing handle")
	ErrMissingTitle      = errors.New("missing title")
	ErrNoSellableVariant = errors.New("no sellable variant")
)

// categoryPhrases are checked in order to backfill an empty category.
var categoryPhrases = []string{
	"All Womens Accessories",
	"All Womens Clothing",
	"All Mens Accessories",
	"All Mens Clothing",
}

var (
	hundred       = decimal.NewFromInt(100)
	parenSuffix   = regexp.MustCompile(`\(([^()]+)\)\s*$`)
	sizeLike      = regexp.MustCompile(`(?i)^(?:xxs|xs|s|m|l|xl|xxl|xxxl|[2-6]xl|one size|os|free size|\d{1,3}(?:\.\d)?[a-z]{0,2}|\d{2}[a-z]?/\d{2})$`)
	defaultTitles = map[string]bool{"default title": true, "default": true}
)

// Builder builds canonical products for one source.
type Builder struct {
	schema Schema
	base   *url.URL
}

// NewBuilder returns a Builder reading payloads laid out as schema describes.
// Without a BaseURL only absolute image URLs are kept.
func NewBuilder(schema Schema) *Builder {
	b := &Builder{schema: schema}
	if schema.BaseURL != "" {
		if u, err := url.Parse(schema.BaseURL); err == nil && u.Scheme != "" {
			b.base = u
		}
	}
	if len(b.schema.ImageSrc) == 0 {
		b.schema.ImageSrc = []string{"src", "url"}
	}
	return b
}

// Schema returns the schema the Builder was created with.
func (b *Builder) Schema() Schema {
	return b.schema
}

// Build maps one raw record to a canonical product. genderHint may be
// empty. A nil product is always paired with ErrMissingHandle,
// ErrMissingTitle or ErrNoSellableVariant.
func (b *Builder) Build(p payload.Payload, genderHint string) (*catalog.Product, error) {
	s := b.schema

	handle := b.handle(p)
	if handle == "" {
		return nil, ErrMissingHandle
	}
	title := cleanText(p.String(s.Title...))
	if title == "" {
		return nil, ErrMissingTitle
	}

	product := &catalog.Product{
		Handle:   handle,
		Title:    title,
		BodyHTML: CleanBody(p.String(s.Body...)),
		Vendor:   cleanText(p.String(s.Vendor...)),
		Category: cleanText(p.String(s.Category...)),
		Type:     cleanText(p.String(s.Type...)),
	}
	if product.Vendor == "" {
		product.Vendor = s.DefaultVendor
	}
	if genderHint != "" {
		product.Type = StripGenderWords(product.Type)
	}

	sourceTags := collect(p, s.Tags)
	collections := collect(p, s.Collections)
	seeded := append(sourceTags, HintTags(genderHint)...)
	cls := Classify(seeded, collections)

	tags := append(append(append([]string(nil), seeded...), collections...), cls.GenderTags...)
	product.Tags = sortedTags(tags)
	if product.Type == "" {
		product.Type = cls.TypeFromTags
	}
	if product.Category == "" {
		for _, phrase := range categoryPhrases {
			if containsFold(product.Tags, phrase) {
				product.Category = phrase
				break
			}
		}
	}

	product.Variants = distinctSKUs(DedupeVariants(b.variants(p, handle), s.SharedSKUAcrossColors))
	if len(product.Variants) == 0 {
		return nil, ErrNoSellableVariant
	}
	return product, nil
}

// handle prefers a URL slug, then a site-native id.
func (b *Builder) handle(p payload.Payload) string {
	for _, path := range b.schema.URL {
		if h := slugFromURL(p.String(path)); h != "" {
			return h
		}
	}
	return Slugify(p.String(b.schema.ID...))
}

func (b *Builder) variants(p payload.Payload, handle string) []catalog.Variant {
	s := b.schema
	raw := p.Array(s.Variants)
	if s.Variants == "" || len(raw) == 0 {
		raw = []payload.Payload{p}
	}
	optionNames := p.Strings(s.OptionNames)
	parentPrice, _ := positive(p, s.Price)
	parentCompare, _ := positive(p, s.CompareAtPrice)
	productID := Slugify(p.String(s.ID...))
	if productID == "" {
		productID = handle
	}

	out := make([]catalog.Variant, 0, len(raw))
	for _, rv := range raw {
		if !b.available(rv) {
			continue
		}
		size, color := b.options(rv, optionNames)
		price, compare := b.prices(rv, parentPrice, parentCompare)

		sku := rv.String(s.Variant.SKU...)
		if sku == "" {
			sku = rv.String(s.Variant.ID...)
		}
		if sku == "" {
			sku = synthesizeSKU(productID, color, size)
		}

		out = append(out, catalog.Variant{
			SKU:            sku,
			Size:           size,
			Color:          color,
			Price:          price,
			CompareAtPrice: compare,
			Images:         b.variantImages(p, rv, color),
		})
	}
	return out
}

// available is false only when the source explicitly says so.
func (b *Builder) available(rv payload.Payload) bool {
	for _, path := range b.schema.Variant.Available {
		if v, ok := rv.Bool(path); ok {
			return v
		}
	}
	return true
}

// options finds size and colour in flat fields, a {name, value} options
// array, positional option slots, or finally the variant title.
func (b *Builder) options(rv payload.Payload, optionNames []string) (string, string) {
	vs := b.schema.Variant
	size := optionValue(rv.String(vs.Size...))
	color := optionValue(rv.String(vs.Color...))

	assign := func(name, value string) {
		value = optionValue(value)
		if value == "" {
			return
		}
		name = strings.ToLower(name)
		switch {
		case strings.Contains(name, "size") && size == "":
			size = value
		case (strings.Contains(name, "color") || strings.Contains(name, "colour")) && color == "":
			color = value
		}
	}

	if vs.Options != "" {
		for _, opt := range rv.Array(vs.Options) {
			assign(opt.String(vs.OptionName), opt.String(vs.OptionValue))
		}
	}
	for i, slot := range vs.OptionSlots {
		if i < len(optionNames) {
			assign(optionNames[i], rv.String(slot))
		}
	}

	if size == "" || color == "" {
		ts, tc := parseVariantTitle(rv.String(vs.Title...))
		if size == "" {
			size = ts
		}
		if color == "" {
			color = tc
		}
	}
	return size, color
}

// parseVariantTitle reads size and colour out of titles like
// "Red / M", "Linen Shirt (Olive)" or "Linen Shirt - XL".
func parseVariantTitle(title string) (string, string) {
	title = optionValue(title)
	if title == "" {
		return "", ""
	}
	var size, color string
	take := func(part string) {
		part = optionValue(part)
		switch {
		case part == "":
		case sizeLike.MatchString(part) && size == "":
			size = part
		case !sizeLike.MatchString(part) && color == "":
			color = part
		}
	}

	if m := parenSuffix.FindStringSubmatch(title); m != nil {
		take(m[1])
		title = strings.TrimSpace(title[:len(title)-len(m[0])])
	}
	switch {
	case strings.Contains(title, " / "):
		for _, part := range strings.Split(title, " / ") {
			take(part)
		}
	case strings.Contains(title, " - "):
		take(title[strings.LastIndex(title, " - ")+3:])
	case sizeLike.MatchString(title):
		take(title)
	}
	return size, color
}

// prices resolves the sale -> list -> parent -> zero chain and the matching
// compare-at price, converting minor units when the source declares them.
func (b *Builder) prices(rv payload.Payload, parentPrice, parentCompare decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	vs := b.schema.Variant
	sale, saleOK := positive(rv, vs.SalePrice)
	list, listOK := positive(rv, vs.ListPrice)

	price := decimal.Zero
	switch {
	case saleOK:
		price = sale
	case listOK:
		price = list
	case parentPrice.IsPositive():
		price = parentPrice
	}

	compare, ok := positive(rv, vs.CompareAtPrice)
	switch {
	case ok:
	case saleOK && listOK:
		compare = list
	case parentCompare.IsPositive():
		compare = parentCompare
	default:
		compare = price
	}

	price, compare = b.toMajor(price), b.toMajor(compare)
	if compare.LessThan(price) {
		compare = price
	}
	return price, compare
}

func (b *Builder) toMajor(d decimal.Decimal) decimal.Decimal {
	if b.schema.PriceUnit == Minor {
		d = d.Div(hundred)
	}
	return d.Round(2)
}

// variantImages prefers the variant's colour group, then images attached to
// the variant itself, then the first non-empty product image group.
func (b *Builder) variantImages(p, rv payload.Payload, color string) []string {
	s := b.schema
	var images []string
	if color != "" && s.ColorImages.Path != "" {
		for _, g := range p.Array(s.ColorImages.Path) {
			if strings.EqualFold(cleanText(g.String(s.ColorImages.Color)), color) {
				images = append(images, b.imageURLs(g, s.ColorImages.Images)...)
			}
		}
	}
	if len(images) == 0 {
		for _, path := range s.Variant.Images {
			images = append(images, b.imageURLs(rv, path)...)
		}
	}
	if len(images) == 0 {
		images = b.productImages(p)
	}
	return DedupeImages(images)
}

func (b *Builder) productImages(p payload.Payload) []string {
	s := b.schema
	for _, path := range s.Images {
		if images := b.imageURLs(p, path); len(images) > 0 {
			return images
		}
	}
	if s.ColorImages.Path != "" {
		for _, g := range p.Array(s.ColorImages.Path) {
			if images := b.imageURLs(g, s.ColorImages.Images); len(images) > 0 {
				return images
			}
		}
	}
	return nil
}

// imageURLs reads a single image or a list of images at path. Members may
// be URL strings or objects carrying the URL in one of Schema.ImageSrc.
func (b *Builder) imageURLs(node payload.Payload, path string) []string {
	v := node.Get(path)
	items := []payload.Payload{v}
	if v.Result().IsArray() {
		items = v.Array("")
	}
	var out []string
	for _, item := range items {
		src := item.String("")
		if src == "" {
			src = item.String(b.schema.ImageSrc...)
		}
		if src = b.absoluteURL(src); src != "" {
			out = append(out, src)
		}
	}
	return out
}

// absoluteURL resolves protocol-relative and root-relative URLs against the
// source's base URL. Relative URLs are dropped when there is no base.
func (b *Builder) absoluteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		scheme := "https"
		if b.base != nil {
			scheme = b.base.Scheme
		}
		return scheme + ":" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return raw
	}
	if b.base == nil {
		return ""
	}
	return b.base.ResolveReference(u).String()
}

func collect(p payload.Payload, paths []string) []string {
	var out []string
	for _, path := range paths {
		out = append(out, p.Strings(path)...)
	}
	return out
}

// positive returns the first strictly positive number at any of paths.
// Zero and negative prices carry no information and fall through.
func positive(p payload.Payload, paths []string) (decimal.Decimal, bool) {
	for _, path := range paths {
		if d, ok := p.Decimal(path); ok && d.IsPositive() {
			return d, true
		}
	}
	return decimal.Zero, false
}

func optionValue(s string) string {
	s = cleanText(s)
	if defaultTitles[strings.ToLower(s)] {
		return ""
	}
	return s
}

// distinctSKUs gives every variant whose SKU is shared with another
// surviving variant its own "<sku>-<color>-<size>" SKU, so downstream keys
// on (handle, sku) never collapse colourways or sizes.
func distinctSKUs(variants []catalog.Variant) []catalog.Variant {
	count := make(map[string]int, len(variants))
	for _, v := range variants {
		count[v.SKU]++
	}
	used := make(map[string]bool, len(variants))
	for _, v := range variants {
		if count[v.SKU] < 2 {
			used[v.SKU] = true
		}
	}
	for i, v := range variants {
		if count[v.SKU] < 2 {
			continue
		}
		base := synthesizeSKU(v.SKU, v.Color, v.Size)
		sku := base
		for n := 2; used[sku]; n++ {
			sku = fmt.Sprintf("%s-%d", base, n)
		}
		used[sku] = true
		variants[i].SKU = sku
	}
	return variants
}

func synthesizeSKU(productID, color, size string) string {
	parts := []string{productID}
	if c := Slugify(color); c != "" {
		parts = append(parts, c)
	}
	if sz := Slugify(size); sz != "" {
		parts = append(parts, sz)
	}
	return strings.Join(parts, "-")
}
