package hal

import (
	"bytes"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack"
	"gopkg.in/yaml.v3"
)

func ordersResource(t *testing.T) *Resource {
	orders, err := NewResource(OrderedMapOf(
		"currentlyProcessing", 14,
		"shippedToday", 20,
	), "/orders")
	require.NoError(t, err)
	orders.MustLink("next", "/orders?page=2")
	orders.MustLink("find", Attributes{"href": "/orders{?id}", "templated": true})

	order123 := MustResource(OrderedMapOf(
		"total", 30.00,
		"currency", "USD",
		"status", "shipped",
	), "/orders/123")
	basket, err := NewLink("basket", "/baskets/98712")
	require.NoError(t, err)
	customer, err := NewLink("customer", Attributes{"href": "/customers/7809"})
	require.NoError(t, err)
	order123.AddLink(basket).AddLink(customer)

	order124 := MustResource(OrderedMapOf(
		"total", 20.00,
		"currency", "USD",
		"status", "processing",
	), "/orders/124")
	order124.MustLink("basket", "/baskets/97213").MustLink("customer", "/customers/12369")

	_, err = orders.EmbedValue("orders", []*Resource{order123, order124})
	require.NoError(t, err)
	return orders
}

func TestResource_JSON(t *testing.T) {
	const expected = `{"_links":{"self":{"href":"/orders"},"next":{"href":"/orders?page=2"},"find":{"href":"/orders{?id}","templated":true}},` +
		`"_embedded":{"orders":[` +
		`{"_links":{"self":{"href":"/orders/123"},"basket":{"href":"/baskets/98712"},"customer":{"href":"/customers/7809"}},"total":30,"currency":"USD","status":"shipped"},` +
		`{"_links":{"self":{"href":"/orders/124"},"basket":{"href":"/baskets/97213"},"customer":{"href":"/customers/12369"}},"total":20,"currency":"USD","status":"processing"}` +
		`]},"currentlyProcessing":14,"shippedToday":20}`

	resource := ordersResource(t)

	buf, err := jsoniter.Marshal(resource)
	require.NoError(t, err)
	assert.Equal(t, expected, string(buf))

	buf, err = jsoniter.Marshal(resource.JSONValue())
	require.NoError(t, err)
	assert.Equal(t, expected, string(buf))

	// serialization is repeatable
	buf, err = resource.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, expected, string(buf))

	var parsed, expectedParsed any
	require.NoError(t, jsoniter.Unmarshal(buf, &parsed))
	require.NoError(t, jsoniter.Unmarshal([]byte(expected), &expectedParsed))
	assert.Equal(t, expectedParsed, parsed)
}

func TestResource_XML(t *testing.T) {
	const expected = `<resource href="/orders">` +
		`<link rel="next" href="/orders?page=2" /><link rel="find" href="/orders{?id}" templated="true" />` +
		`<resource rel="order" href="/orders/123"><link rel="basket" href="/baskets/98712" /><link rel="customer" href="/customers/7809" /><total>30</total><currency>USD</currency><status>shipped</status></resource>` +
		`<resource rel="order" href="/orders/124"><link rel="basket" href="/baskets/97213" /><link rel="customer" href="/customers/12369" /><total>20</total><currency>USD</currency><status>processing</status></resource>` +
		`<currentlyProcessing>14</currentlyProcessing><shippedToday>20</shippedToday>` +
		`</resource>`

	resource := ordersResource(t)
	assert.Equal(t, expected, resource.XMLString())
	assert.Equal(t, expected, resource.XMLIndent(""))
}

func TestResource_XMLIndent(t *testing.T) {
	resource := MustResource(OrderedMapOf("total", 30), "/orders/123")
	resource.MustLink("customer", "/customers/7809")
	resource.Embed("items", MustResource(OrderedMapOf("sku", "abc"), "/items/1"))

	assert.Equal(t, `<resource href="/orders/123">
  <link rel="customer" href="/customers/7809" />
  <resource rel="item" href="/items/1">
    <sku>abc</sku>
  </resource>
  <total>30</total>
</resource>`, resource.XMLIndent("  "))
}

func TestResource_XMLAttributes(t *testing.T) {
	for name, tc := range map[string]struct {
		Resource func() *Resource
		Expected string
	}{
		"NoSelf": {
			Resource: func() *Resource {
				return MustResource(OrderedMapOf("a", "b"), nil)
			},
			Expected: `<resource><a>b</a></resource>`,
		},
		"Name": {
			Resource: func() *Resource {
				return MustResource(OrderedMapOf("name", `"bob"`), "/people/1")
			},
			Expected: `<resource href="/people/1" name="&quot;bob&quot;"><name>"bob"</name></resource>`,
		},
		"HrefPropertyKeepsSelfLink": {
			Resource: func() *Resource {
				return MustResource(OrderedMapOf("href", "/canonical"), "/people/1")
			},
			Expected: `<resource href="/canonical"><link rel="self" href="/people/1" /><href>/canonical</href></resource>`,
		},
		"UnescapedPropertyText": {
			Resource: func() *Resource {
				return MustResource(OrderedMapOf("q", "a<b&c"), "/q")
			},
			Expected: `<resource href="/q"><q>a<b&c</q></resource>`,
		},
		"CompositeProperty": {
			Resource: func() *Resource {
				return MustResource(OrderedMapOf("tags", []string{"a", "b"}, "flag", true), "/t")
			},
			Expected: `<resource href="/t"><tags>["a","b"]</tags><flag>true</flag></resource>`,
		},
		"MultipleLinks": {
			Resource: func() *Resource {
				return MustResource(nil, "/r").MustLink("item", "/1").MustLink("item", "/2")
			},
			Expected: `<resource href="/r"><link rel="item" href="/1" /><link rel="item" href="/2" /></resource>`,
		},
		"NaiveSingular": {
			Resource: func() *Resource {
				return MustResource(nil, "/r").
					Embed("people", MustResource(nil, "/p/1")).
					Embed("address", MustResource(nil, "/a/1"))
			},
			Expected: `<resource href="/r"><resource rel="people" href="/p/1"></resource><resource rel="addres" href="/a/1"></resource></resource>`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, tc.Resource().XMLString())
		})
	}
}

func TestNewResource(t *testing.T) {
	t.Run("CopiesProperties", func(t *testing.T) {
		r, err := NewResource(map[string]any{"hello": "world", "who": "am I"}, nil)
		require.NoError(t, err)
		v, ok := r.Properties().Get("hello")
		assert.True(t, ok)
		assert.Equal(t, "world", v)
		v, _ = r.Properties().Get("who")
		assert.Equal(t, "am I", v)
		assert.Nil(t, r.Self())
		assert.Empty(t, r.LinkRels())
	})

	t.Run("SelfFromURI", func(t *testing.T) {
		r, err := NewResource(OrderedMapOf(), "href")
		require.NoError(t, err)
		require.NotNil(t, r.Self())
		assert.Equal(t, "href", r.Self().Href)
		_, ok := r.Properties().Get("href")
		assert.False(t, ok)
	})

	t.Run("SelfFromAttributes", func(t *testing.T) {
		r, err := NewResource(nil, Attributes{"href": "href", "name": "name"})
		require.NoError(t, err)
		require.NotNil(t, r.Self())
		assert.Equal(t, "href", r.Self().Href)
		assert.Equal(t, "name", r.Self().Name)
	})

	t.Run("SelfFromHrefProperty", func(t *testing.T) {
		r, err := NewResource(OrderedMapOf("href", "/orders/1", "total", 3), nil)
		require.NoError(t, err)
		require.NotNil(t, r.Self())
		assert.Equal(t, "/orders/1", r.Self().Href)
		assert.Equal(t, []string{"total"}, r.Properties().Keys())
	})

	t.Run("HrefPropertyMatchingURI", func(t *testing.T) {
		r, err := NewResource(OrderedMapOf("href", "/orders/1"), "/orders/1")
		require.NoError(t, err)
		assert.Equal(t, 0, r.Properties().Len())
	})

	t.Run("HrefPropertyDifferentFromURI", func(t *testing.T) {
		r, err := NewResource(OrderedMapOf("href", "/canonical"), "/orders/1")
		require.NoError(t, err)
		assert.Equal(t, "/orders/1", r.Self().Href)
		v, ok := r.Properties().Get("href")
		assert.True(t, ok)
		assert.Equal(t, "/canonical", v)
	})

	t.Run("ReservedProperties", func(t *testing.T) {
		r, err := NewResource(OrderedMapOf("_links", "x", "_embedded", "y", "a", 1), "/r")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, r.Properties().Keys())
		assert.Equal(t, []string{"self"}, r.LinkRels())
	})

	t.Run("Idempotent", func(t *testing.T) {
		r := MustResource(nil, "/r")
		again, err := NewResource(r, "/other")
		require.NoError(t, err)
		assert.Same(t, r, again)
		assert.Equal(t, "/r", again.Self().Href)
	})

	t.Run("InvalidSelf", func(t *testing.T) {
		_, err := NewResource(nil, Attributes{"name": "no-href"})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "href", validationErr.Attribute)
	})

	t.Run("UnsupportedProperties", func(t *testing.T) {
		_, err := NewResource(42, nil)
		assert.Error(t, err)
	})

	t.Run("CallerMapUnchanged", func(t *testing.T) {
		props := OrderedMapOf("href", "/r", "a", 1)
		r := MustResource(props, nil)
		r.Properties().Set("b", 2)
		assert.Equal(t, []string{"href", "a"}, props.Keys())
	})
}

func TestResource_Link(t *testing.T) {
	r := MustResource(nil, "href")

	_, err := r.Link("edit", "/edit")
	require.NoError(t, err)
	assert.IsType(t, SingleLink{}, r.LinkValue("edit"))
	assert.Equal(t, "/edit", r.Links("edit")[0].Href)

	r.MustLink("a", "1").MustLink("a", "2")
	require.IsType(t, MultiLink{}, r.LinkValue("a"))
	assert.Len(t, r.Links("a"), 2)

	r.MustLink("a", "3")
	hrefs := []string{}
	for _, link := range r.Links("a") {
		hrefs = append(hrefs, link.Href)
	}
	assert.Equal(t, []string{"1", "2", "3"}, hrefs)
	assert.Equal(t, []string{"self", "edit", "a"}, r.LinkRels())

	_, err = r.Link("", "x")
	assert.Error(t, err)
	assert.Nil(t, r.LinkValue(""))

	assert.Panics(t, func() {
		r.MustLink("b", "")
	})

	buf, err := jsoniter.Marshal(MustResource(nil, nil).MustLink("a", "1").MustLink("a", "2"))
	require.NoError(t, err)
	assert.Equal(t, `{"_links":{"a":[{"href":"1"},{"href":"2"}]}}`, string(buf))
}

func TestResource_Embed(t *testing.T) {
	a := MustResource(nil, "/a")
	b := MustResource(nil, "/b")
	c := MustResource(nil, "/c")

	t.Run("ManyThenOne", func(t *testing.T) {
		r := MustResource(nil, "/r")
		_, err := r.EmbedValue("orders", []*Resource{a, b})
		require.NoError(t, err)
		r.Embed("orders", c)
		assert.Equal(t, []*Resource{a, b, c}, r.Embedded("orders"))
	})

	t.Run("OneThenMany", func(t *testing.T) {
		r := MustResource(nil, "/r")
		_, err := r.EmbedValue("orders", a)
		require.NoError(t, err)
		assert.Len(t, r.Embedded("orders"), 1)
		r.Embed("orders", b, c)
		assert.Equal(t, []*Resource{a, b, c}, r.Embedded("orders"))
	})

	t.Run("CoercesProperties", func(t *testing.T) {
		r := MustResource(nil, "/r")
		_, err := r.EmbedValue("subs", []any{
			OrderedMapOf("href", "/subs/1", "n", 1),
			map[string]any{"href": "/subs/2"},
			a,
		})
		require.NoError(t, err)
		subs := r.Embedded("subs")
		require.Len(t, subs, 3)
		assert.Equal(t, "/subs/1", subs[0].Self().Href)
		assert.Equal(t, "/subs/2", subs[1].Self().Href)
		assert.Same(t, a, subs[2])
	})

	t.Run("Error", func(t *testing.T) {
		r := MustResource(nil, "/r")
		_, err := r.EmbedValue("subs", OrderedMapOf("href", Attributes{"name": "x"}))
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Empty(t, r.Embedded("subs"))
	})

	t.Run("SingleIsArray", func(t *testing.T) {
		r := MustResource(nil, "/r").Embed("subs", MustResource(nil, "/s"))
		buf, err := jsoniter.Marshal(r)
		require.NoError(t, err)
		assert.Equal(t, `{"_links":{"self":{"href":"/r"}},"_embedded":{"subs":[{"_links":{"self":{"href":"/s"}}}]}}`, string(buf))
		assert.Equal(t, []string{"subs"}, r.EmbeddedRels())
	})

	t.Run("Empty", func(t *testing.T) {
		buf, err := jsoniter.Marshal(MustResource(nil, nil))
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(buf))
	})
}

func TestResource_MsgPack(t *testing.T) {
	buf, err := msgpack.Marshal(ordersResource(t))
	require.NoError(t, err)

	dec := msgpack.NewDecoder(bytes.NewReader(buf))
	n, err := dec.DecodeMapLen()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	key, err := dec.DecodeString()
	require.NoError(t, err)
	assert.Equal(t, "_links", key)
}

func TestResource_YAML(t *testing.T) {
	r := MustResource(OrderedMapOf("b", 1, "a", "x"), "/r").MustLink("next", "/r?page=2")
	buf, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `_links:
    self:
        href: /r
    next:
        href: /r?page=2
b: 1
a: x
`, string(buf))
}
