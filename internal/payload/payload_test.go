package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_FirstNonBlankPath(t *testing.T) {
	p := FromString(`{"title":"  ","name":"Linen Shirt","id":12345}`)

	assert.Equal(t, "Linen Shirt", p.String("title", "name"))
	assert.Equal(t, "12345", p.String("missing", "id"))
	assert.Equal(t, "", p.String("missing.deeper"))
}

func TestStrings_ArrayAndCommaSeparated(t *testing.T) {
	p := FromString(`{
		"tags": "Women, New Arrivals , ,Tops",
		"collections": [{"title":"Sale"}, "Hoodies", {"name":"Dresses"}, null],
		"one": 7
	}`)

	assert.Equal(t, []string{"Women", "New Arrivals", "Tops"}, p.Strings("tags"))
	assert.Equal(t, []string{"Sale", "Hoodies", "Dresses"}, p.Strings("collections"))
	assert.Equal(t, []string{"7"}, p.Strings("one"))
	assert.Empty(t, p.Strings("nope"))
}

func TestArray_SingleObjectIsOneElement(t *testing.T) {
	p := FromString(`{"offers":{"price":"10"},"variants":[{"sku":"a"},{"sku":"b"}],"n":1}`)

	require.Len(t, p.Array("offers"), 1)
	assert.Equal(t, "10", p.Array("offers")[0].String("price"))
	assert.Len(t, p.Array("variants"), 2)
	assert.Nil(t, p.Array("n"))
	assert.Nil(t, p.Array("missing"))
}

func TestBool_DistinguishesAbsentFromFalse(t *testing.T) {
	p := FromString(`{
		"a": true, "b": false, "c": 0, "d": 3,
		"e": "https://schema.org/OutOfStock", "f": "In Stock", "g": "maybe", "h": null
	}`)

	cases := []struct {
		path    string
		value   bool
		present bool
	}{
		{"a", true, true},
		{"b", false, true},
		{"c", false, true},
		{"d", true, true},
		{"e", false, true},
		{"f", true, true},
		{"g", false, false},
		{"h", false, false},
		{"missing", false, false},
	}
	for _, tc := range cases {
		v, ok := p.Bool(tc.path)
		assert.Equal(t, tc.value, v, tc.path)
		assert.Equal(t, tc.present, ok, tc.path)
	}
}

func TestDecimal_ParsesNumbersAndMoneyStrings(t *testing.T) {
	p := FromString(`{"a": 45.0, "b": "$1,299.50", "c": "Rs. 2,499", "d": "", "e": "free", "f": 4500}`)

	d, ok := p.Decimal("a")
	require.True(t, ok)
	assert.Equal(t, "45", d.String())

	d, ok = p.Decimal("b")
	require.True(t, ok)
	assert.Equal(t, "1299.5", d.String())

	d, ok = p.Decimal("c")
	require.True(t, ok)
	assert.Equal(t, "2499", d.String())

	_, ok = p.Decimal("d")
	assert.False(t, ok)
	_, ok = p.Decimal("e")
	assert.False(t, ok)

	d, ok = p.FirstDecimal("missing", "f")
	require.True(t, ok)
	assert.Equal(t, "4500", d.String())
}

func TestFromValue_AndInvalidJSON(t *testing.T) {
	p := FromValue(map[string]any{"variants": []any{map[string]any{"size": "M"}}})
	assert.Equal(t, "M", p.String("variants.0.size"))

	empty := FromString("{not json")
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "", empty.String("title"))
	assert.False(t, empty.Exists("title"))
}
