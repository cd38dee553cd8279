package normalize

// PriceUnit declares how a source reports money.
type PriceUnit int

const (
	// Major means the source already reports whole currency units (45.00).
	Major PriceUnit = iota
	// Minor means the source reports cents (4500) and values are divided by 100.
	Minor
)

func (u PriceUnit) String() string {
	if u == Minor {
		return "minor"
	}
	return "major"
}

// Schema declares where one source keeps each product field inside its raw
// payload. Every field is a list of gjson paths tried in order; the first
// one holding a value wins. Adapters describe their payloads with a Schema
// and leave all normalisation to the Builder.
type Schema struct {
	Source    string
	BaseURL   string
	PriceUnit PriceUnit

	// URL paths hold a product URL or slug-like handle; ID paths hold a
	// site-native identifier used when no slug is available.
	URL []string
	ID  []string

	Title       []string
	Body        []string
	Vendor      []string
	Category    []string
	Type        []string
	Tags        []string
	Collections []string

	// Parent-product prices, used when a variant carries none.
	Price          []string
	CompareAtPrice []string

	// OptionNames points at the product's ordered option names (Shopify's
	// options.#.name); they label the variant option slots.
	OptionNames string

	// Variants points at the variant array. When empty, the product itself
	// is read as its only variant.
	Variants string
	Variant  VariantSchema

	// Images lists product-level image groups; the first non-empty group is
	// the fallback for variants without colour-specific images. ImageSrc
	// names the URL field when group members are objects.
	Images   []string
	ImageSrc []string

	ColorImages ColorImageSchema

	// SharedSKUAcrossColors makes colour part of the variant identity, for
	// sources that reuse a SKU across colourways.
	SharedSKUAcrossColors bool

	// DefaultVendor is used when the payload has no brand.
	DefaultVendor string
}

// VariantSchema declares variant-level paths, relative to one variant.
type VariantSchema struct {
	ID             []string
	SKU            []string
	Size           []string
	Color          []string
	SalePrice      []string
	ListPrice      []string
	CompareAtPrice []string
	Available      []string

	// Options points at an array of {name, value} objects.
	Options     string
	OptionName  string
	OptionValue string

	// OptionSlots are positional option values (option1, option2, ...),
	// labelled by Schema.OptionNames.
	OptionSlots []string

	Title  []string
	Images []string
}

// ColorImageSchema describes images grouped by colour, e.g.
// {"colors":[{"name":"Red","images":["..."]}]}.
type ColorImageSchema struct {
	Path   string
	Color  string
	Images string
}
