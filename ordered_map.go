package hal

import (
	"fmt"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"gopkg.in/yaml.v3"
)

// OrderedMapItem is a key-value pair for an item in an OrderedMap.
type OrderedMapItem struct {
	Key   string
	Value any
}

// OrderedMap represents a map that maintains the order of its key-value pairs. It's more or less
// just a list that serializes to a JSON, msgpack, or YAML map.
//
// Resources use it for their properties and for their JSON values.
type OrderedMap struct {
	items []OrderedMapItem
}

// NewOrderedMap creates a new ordered map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{}
}

// OrderedMapOf creates an ordered map from alternating keys and values. It panics if the arguments
// can't be paired up or if a key isn't a string.
func OrderedMapOf(keysAndValues ...any) *OrderedMap {
	if len(keysAndValues)%2 != 0 {
		panic("OrderedMapOf requires an even number of arguments")
	}
	m := &OrderedMap{
		items: make([]OrderedMapItem, 0, len(keysAndValues)/2),
	}
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			panic(fmt.Sprintf("OrderedMapOf key at position %d is a %T, not a string", i, keysAndValues[i]))
		}
		m.Set(key, keysAndValues[i+1])
	}
	return m
}

// Set writes a key-value pair to the map. If the key already exists its value is replaced in place,
// otherwise the pair is appended.
func (m *OrderedMap) Set(key string, value any) {
	if i := m.index(key); i >= 0 {
		m.items[i].Value = value
		return
	}
	m.Append(key, value)
}

// Append appends a key-value pair to the map. It is the caller's responsibility to make sure the
// key doesn't already exist in the map.
func (m *OrderedMap) Append(key string, value any) {
	m.items = append(m.items, OrderedMapItem{
		Key:   key,
		Value: value,
	})
}

// Get returns the value for the given key and whether it was present.
func (m *OrderedMap) Get(key string) (any, bool) {
	if i := m.index(key); i >= 0 {
		return m.items[i].Value, true
	}
	return nil, false
}

// Delete removes the given key, preserving the order of the remaining items.
func (m *OrderedMap) Delete(key string) {
	if i := m.index(key); i >= 0 {
		m.items = append(m.items[:i:i], m.items[i+1:]...)
	}
}

// Len returns the length of the map.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Items provides the items in the map, in the order they were added.
func (m *OrderedMap) Items() []OrderedMapItem {
	if m == nil {
		return nil
	}
	return m.items
}

// Keys provides the keys in the map, in the order they were added.
func (m *OrderedMap) Keys() []string {
	ret := make([]string, 0, m.Len())
	for _, item := range m.Items() {
		ret = append(ret, item.Key)
	}
	return ret
}

func (m *OrderedMap) index(key string) int {
	if m == nil {
		return -1
	}
	for i, item := range m.items {
		if item.Key == key {
			return i
		}
	}
	return -1
}

// HTML characters are common in hrefs, so unlike jsoniter.ConfigDefault they aren't escaped.
var jsonConfig = jsoniter.Config{
	SortMapKeys: true,
}.Froze()

func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	return jsonConfig.Marshal(m)
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (m *OrderedMap) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(m.Len()); err != nil {
		return err
	}
	for _, kv := range m.Items() {
		if err := enc.EncodeString(kv.Key); err != nil {
			return err
		}
		if err := enc.Encode(kv.Value); err != nil {
			return errors.Wrapf(err, "unable to encode value for %v", kv.Key)
		}
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler. The map is emitted as a mapping node so that the order
// survives.
func (m *OrderedMap) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}
	for _, kv := range m.Items() {
		var key, value yaml.Node
		if err := key.Encode(kv.Key); err != nil {
			return nil, err
		}
		if err := value.Encode(kv.Value); err != nil {
			return nil, errors.Wrapf(err, "unable to encode value for %v", kv.Key)
		}
		node.Content = append(node.Content, &key, &value)
	}
	return node, nil
}

type orderedMapEncoder struct{}

func (e *orderedMapEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	m := *((*OrderedMap)(ptr))
	return m.Len() == 0
}

func (e *orderedMapEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	m := *((*OrderedMap)(ptr))
	stream.WriteObjectStart()
	for i, kv := range m.items {
		if i != 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(kv.Key)
		stream.WriteVal(kv.Value)
	}
	stream.WriteObjectEnd()
}

func init() {
	jsoniter.RegisterTypeEncoder("hal.OrderedMap", &orderedMapEncoder{})
}
