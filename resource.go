package hal

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
)

// LinkValue is the content of a resource's link relation: either a SingleLink or, once the same
// relation has been registered more than once, a MultiLink.
type LinkValue interface {
	// Links returns the relation's links in the order they were added.
	Links() []*Link

	isLinkValue()
}

// SingleLink is a relation with exactly one link. It serializes to a single JSON object.
type SingleLink struct {
	*Link
}

func (v SingleLink) Links() []*Link { return []*Link{v.Link} }
func (SingleLink) isLinkValue()     {}

// MultiLink is a relation with two or more links. It serializes to a JSON array.
type MultiLink []*Link

func (v MultiLink) Links() []*Link { return v }
func (MultiLink) isLinkValue()     {}

type linkSlot struct {
	rel   string
	value LinkValue
}

type embeddedSlot struct {
	rel       string
	resources []*Resource
}

// Resource is a node of a HAL resource graph: its own properties, its links, and the resources
// embedded within it.
//
// A resource exclusively owns the links and resources added to it. Resources are not safe for
// concurrent mutation.
type Resource struct {
	properties *OrderedMap
	links      []linkSlot
	embedded   []embeddedSlot
}

// These property names belong to the HAL containers and are never copied from caller data.
var reservedPropertyNames = map[string]struct{}{
	"_links":    {},
	"_embedded": {},
}

// NewResource builds a resource from a property bag and an optional self link.
//
// If properties is already a *Resource, it is returned as-is. Otherwise it may be nil, an
// *OrderedMap, or a map[string]any (whose keys are copied in sorted order, since Go maps have
// none).
//
// The self link is built from self, which may be an href or an attribute bag as accepted by
// NewLink. If self is empty, the "href" property is used instead and removed from the properties.
// If neither is given, the resource has no self link.
func NewResource(properties any, self any) (*Resource, error) {
	if r, ok := properties.(*Resource); ok && r != nil {
		return r, nil
	}

	props, err := propertyBag(properties)
	if err != nil {
		return nil, err
	}

	ret := &Resource{
		properties: NewOrderedMap(),
	}

	hrefProperty, hasHrefProperty := props.Get("href")
	if !truthy(self) {
		self = hrefProperty
	}
	consumeHref := hasHrefProperty && sameScalar(self, hrefProperty)

	for _, kv := range props.Items() {
		if _, ok := reservedPropertyNames[kv.Key]; ok {
			continue
		}
		if kv.Key == "href" && consumeHref {
			continue
		}
		ret.properties.Append(kv.Key, kv.Value)
	}

	if truthy(self) {
		if _, err := ret.Link("self", self); err != nil {
			return nil, errors.Wrap(err, "invalid self link")
		}
	}

	return ret, nil
}

// MustResource is like NewResource, but panics on error.
func MustResource(properties any, self any) *Resource {
	r, err := NewResource(properties, self)
	if err != nil {
		panic(err)
	}
	return r
}

func propertyBag(properties any) (*OrderedMap, error) {
	switch properties := properties.(type) {
	case nil:
		return NewOrderedMap(), nil
	case *OrderedMap:
		if properties == nil {
			return NewOrderedMap(), nil
		}
		return properties, nil
	case Attributes:
		return orderedMapFromMap(properties), nil
	case map[string]any:
		return orderedMapFromMap(properties), nil
	}
	return nil, fmt.Errorf("unsupported resource properties type %T", properties)
}

func orderedMapFromMap(m map[string]any) *OrderedMap {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ret := NewOrderedMap()
	for _, k := range keys {
		ret.Append(k, m[k])
	}
	return ret
}

// sameScalar reports whether the self link argument is the href property itself. Attribute bags are
// never the same as a property.
func sameScalar(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Kind() == reflect.Map {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	return ta.Comparable() && a == b
}

// Properties returns the resource's own properties. The returned map may be modified to change
// them.
func (r *Resource) Properties() *OrderedMap {
	return r.properties
}

// AddLink adds a prebuilt link under its rel. The first link for a relation is stored on its own;
// adding another turns the relation into a list.
func (r *Resource) AddLink(link *Link) *Resource {
	for i, slot := range r.links {
		if slot.rel != link.Rel {
			continue
		}
		switch v := slot.value.(type) {
		case SingleLink:
			r.links[i].value = MultiLink{v.Link, link}
		case MultiLink:
			r.links[i].value = append(v, link)
		}
		return r
	}
	r.links = append(r.links, linkSlot{
		rel:   link.Rel,
		value: SingleLink{link},
	})
	return r
}

// Link builds a link as NewLink does and adds it to the resource.
func (r *Resource) Link(rel string, value any) (*Resource, error) {
	link, err := NewLink(rel, value)
	if err != nil {
		return r, err
	}
	return r.AddLink(link), nil
}

// MustLink is like Link, but panics on error. It's intended for links built from constants.
func (r *Resource) MustLink(rel string, value any) *Resource {
	if _, err := r.Link(rel, value); err != nil {
		panic(err)
	}
	return r
}

// LinkValue returns the links registered for the given relation, or nil if there are none.
func (r *Resource) LinkValue(rel string) LinkValue {
	for _, slot := range r.links {
		if slot.rel == rel {
			return slot.value
		}
	}
	return nil
}

// Links returns the links registered for the given relation.
func (r *Resource) Links(rel string) []*Link {
	if v := r.LinkValue(rel); v != nil {
		return v.Links()
	}
	return nil
}

// LinkRels returns the resource's link relations in the order they were first added.
func (r *Resource) LinkRels() []string {
	ret := make([]string, len(r.links))
	for i, slot := range r.links {
		ret[i] = slot.rel
	}
	return ret
}

// Self returns the resource's first self link, or nil if it doesn't have one.
func (r *Resource) Self() *Link {
	if links := r.Links("self"); len(links) > 0 {
		return links[0]
	}
	return nil
}

// Embed appends resources to the given relation. The relation always holds a list, even if only
// one resource is ever embedded.
func (r *Resource) Embed(rel string, resources ...*Resource) *Resource {
	slot := r.embeddedSlot(rel)
	for _, resource := range resources {
		if resource != nil {
			slot.resources = append(slot.resources, resource)
		}
	}
	return r
}

// EmbedValue is like Embed, but accepts anything NewResource does, or a slice of such values.
func (r *Resource) EmbedValue(rel string, v any) (*Resource, error) {
	var resources []*Resource
	switch v := v.(type) {
	case []*Resource:
		resources = v
	case []*OrderedMap:
		for _, props := range v {
			resource, err := NewResource(props, nil)
			if err != nil {
				return r, errors.Wrapf(err, "unable to embed %v resource", rel)
			}
			resources = append(resources, resource)
		}
	case []map[string]any:
		for _, props := range v {
			resource, err := NewResource(props, nil)
			if err != nil {
				return r, errors.Wrapf(err, "unable to embed %v resource", rel)
			}
			resources = append(resources, resource)
		}
	case []any:
		for _, props := range v {
			resource, err := NewResource(props, nil)
			if err != nil {
				return r, errors.Wrapf(err, "unable to embed %v resource", rel)
			}
			resources = append(resources, resource)
		}
	default:
		resource, err := NewResource(v, nil)
		if err != nil {
			return r, errors.Wrapf(err, "unable to embed %v resource", rel)
		}
		resources = []*Resource{resource}
	}
	return r.Embed(rel, resources...), nil
}

func (r *Resource) embeddedSlot(rel string) *embeddedSlot {
	for i := range r.embedded {
		if r.embedded[i].rel == rel {
			return &r.embedded[i]
		}
	}
	r.embedded = append(r.embedded, embeddedSlot{
		rel:       rel,
		resources: []*Resource{},
	})
	return &r.embedded[len(r.embedded)-1]
}

// Embedded returns the resources embedded under the given relation.
func (r *Resource) Embedded(rel string) []*Resource {
	for _, slot := range r.embedded {
		if slot.rel == rel {
			return slot.resources
		}
	}
	return nil
}

// EmbeddedRels returns the resource's embedded relations in the order they were first added.
func (r *Resource) EmbeddedRels() []string {
	ret := make([]string, len(r.embedded))
	for i, slot := range r.embedded {
		ret[i] = slot.rel
	}
	return ret
}

// JSONValue returns the HAL JSON representation of the resource: "_links" first, then
// "_embedded", then the resource's own properties. Empty containers are omitted.
//
// Embedded relations are always arrays, even when they hold a single resource. Strict HAL would
// collapse those to a bare object, but consumers of this package rely on the array.
func (r *Resource) JSONValue() *OrderedMap {
	ret := NewOrderedMap()

	if len(r.links) > 0 {
		links := NewOrderedMap()
		for _, slot := range r.links {
			switch v := slot.value.(type) {
			case SingleLink:
				links.Append(slot.rel, v.attributes(false))
			case MultiLink:
				values := make([]any, len(v))
				for i, link := range v {
					values[i] = link.attributes(false)
				}
				links.Append(slot.rel, values)
			}
		}
		ret.Append("_links", links)
	}

	if len(r.embedded) > 0 {
		embedded := NewOrderedMap()
		for _, slot := range r.embedded {
			values := make([]any, len(slot.resources))
			for i, resource := range slot.resources {
				values[i] = resource.JSONValue()
			}
			embedded.Append(slot.rel, values)
		}
		ret.Append("_embedded", embedded)
	}

	for _, kv := range r.properties.Items() {
		ret.Append(kv.Key, kv.Value)
	}

	return ret
}

func (r *Resource) MarshalJSON() ([]byte, error) {
	return r.JSONValue().MarshalJSON()
}

// EncodeMsgpack implements msgpack.CustomEncoder using the same structure as JSONValue.
func (r *Resource) EncodeMsgpack(enc *msgpack.Encoder) error {
	return r.JSONValue().EncodeMsgpack(enc)
}

// MarshalYAML implements yaml.Marshaler using the same structure as JSONValue.
func (r *Resource) MarshalYAML() (any, error) {
	return r.JSONValue().MarshalYAML()
}
