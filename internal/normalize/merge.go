package normalize

import (
	"sort"
	"strings"

	"shopify-catalog/internal/catalog"
)

type mergeKey struct {
	handle string
	title  string
}

// Merge folds products that a source emitted once per colourway back into
// one product. A trailing "-<color>" is stripped from each handle and a
// trailing " - <color>" from each title, using the product's own variant
// colours; products whose stripped (handle, lowercased title) agree form a
// group. The first member of a group takes the cleaned handle and title and
// receives every member's variants in encounter order. Groups of one are
// returned untouched.
//
// A merged product carries more colours than any of its members, so its
// own suffix can strip further and meet another product. Merge therefore
// repeats the grouping pass until nothing groups, which makes it
// idempotent.
//
// Output order follows the first appearance of each group, so callers must
// pass products in a stable order.
func Merge(products []catalog.Product) []catalog.Product {
	out := mergeOnce(products)
	for len(out) < len(products) {
		products = out
		out = mergeOnce(products)
	}
	return out
}

func mergeOnce(products []catalog.Product) []catalog.Product {
	type group struct {
		members []int
		handle  string
		title   string
	}

	groups := make(map[mergeKey]*group)
	var order []mergeKey
	for i, p := range products {
		handle, title := stripColorSuffix(p)
		k := mergeKey{handle: handle, title: strings.ToLower(title)}
		g, ok := groups[k]
		if !ok {
			g = &group{handle: handle, title: title}
			groups[k] = g
			order = append(order, k)
		}
		g.members = append(g.members, i)
	}

	out := make([]catalog.Product, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if len(g.members) == 1 {
			out = append(out, products[g.members[0]])
			continue
		}
		target := products[g.members[0]].Clone()
		target.Handle = g.handle
		target.Title = g.title
		for _, j := range g.members[1:] {
			target.Variants = append(target.Variants, products[j].Clone().Variants...)
		}
		out = append(out, target)
	}
	return out
}

// stripColorSuffix removes a colour suffix from the handle and title.
// Longer colour names are tried first so "navy-blue" wins over "blue".
func stripColorSuffix(p catalog.Product) (string, string) {
	colors := catalog.Colors([]catalog.Product{p})
	sort.SliceStable(colors, func(i, j int) bool { return len(colors[i]) > len(colors[j]) })

	handle, title := p.Handle, p.Title
	for _, c := range colors {
		suffix := "-" + Slugify(c)
		if suffix != "-" && len(handle) > len(suffix) && strings.HasSuffix(handle, suffix) {
			handle = strings.TrimSuffix(handle, suffix)
			break
		}
	}
	lower := strings.ToLower(title)
	for _, c := range colors {
		suffix := " - " + strings.ToLower(c)
		if len(lower) == len(title) && len(title) > len(suffix) && strings.HasSuffix(lower, suffix) {
			title = strings.TrimSpace(title[:len(title)-len(suffix)])
			break
		}
	}
	return handle, title
}
