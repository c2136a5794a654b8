package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"gopkg.in/yaml.v3"

	"github.com/ccbrown/hal"
)

// Codec encodes resources for a particular media type.
type Codec interface {
	// Name is the short name of the codec, e.g. "json".
	Name() string

	// ContentType returns the media type of the encoded output.
	ContentType() string

	// Marshal encodes the resource.
	Marshal(resource *hal.Resource) ([]byte, error)
}

// JSON encodes resources as HAL+JSON.
type JSON struct {
	// If given, the output is indented with this string.
	Indent string
}

func (JSON) Name() string        { return "json" }
func (JSON) ContentType() string { return "application/hal+json" }

func (c JSON) Marshal(resource *hal.Resource) ([]byte, error) {
	buf, err := resource.MarshalJSON()
	if err != nil || c.Indent == "" {
		return buf, err
	}
	// jsoniter only indents with spaces
	var indented bytes.Buffer
	if err := json.Indent(&indented, buf, "", c.Indent); err != nil {
		return nil, errors.Wrap(err, "unable to indent json")
	}
	return indented.Bytes(), nil
}

// XML encodes resources as HAL+XML.
type XML struct {
	// If given, each element is placed on its own line and indented with this string once per
	// level of nesting.
	Indent string
}

func (XML) Name() string        { return "xml" }
func (XML) ContentType() string { return "application/hal+xml" }

func (c XML) Marshal(resource *hal.Resource) ([]byte, error) {
	return []byte(resource.XMLIndent(c.Indent)), nil
}

// MsgPack encodes the HAL+JSON structure of resources as msgpack.
type MsgPack struct{}

func (MsgPack) Name() string        { return "msgpack" }
func (MsgPack) ContentType() string { return "application/hal+msgpack" }

func (MsgPack) Marshal(resource *hal.Resource) ([]byte, error) {
	buf, err := msgpack.Marshal(resource)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode resource as msgpack")
	}
	return buf, nil
}

// YAML encodes the HAL+JSON structure of resources as YAML.
type YAML struct{}

func (YAML) Name() string        { return "yaml" }
func (YAML) ContentType() string { return "application/hal+yaml" }

func (YAML) Marshal(resource *hal.Resource) ([]byte, error) {
	buf, err := yaml.Marshal(resource)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode resource as yaml")
	}
	return buf, nil
}

// ByName returns the codec with the given name: "json", "xml", "msgpack", or "yaml". The indent is
// applied to the codecs that support it.
func ByName(name, indent string) (Codec, error) {
	switch strings.ToLower(name) {
	case "json":
		return JSON{Indent: indent}, nil
	case "xml":
		return XML{Indent: indent}, nil
	case "msgpack":
		return MsgPack{}, nil
	case "yaml":
		return YAML{}, nil
	}
	return nil, fmt.Errorf("unknown format: %v", name)
}

var mediaTypes = []struct {
	MediaType string
	Codec     Codec
}{
	{"application/hal+json", JSON{}},
	{"application/json", JSON{}},
	{"application/hal+xml", XML{}},
	{"application/xml", XML{}},
	{"text/xml", XML{}},
	{"application/hal+msgpack", MsgPack{}},
	{"application/x-msgpack", MsgPack{}},
	{"application/msgpack", MsgPack{}},
	{"application/hal+yaml", YAML{}},
	{"application/yaml", YAML{}},
	{"application/x-yaml", YAML{}},
	{"*/*", JSON{}},
	{"application/*", JSON{}},
}

// Negotiate picks a codec for the given Accept header values. Media ranges are considered in the
// order given. Quality values aren't ranked, but ranges with q=0 are skipped. It returns nil if
// nothing is acceptable.
func Negotiate(accept ...string) Codec {
	for _, header := range accept {
		for _, part := range strings.Split(header, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			mediaType, params, err := mime.ParseMediaType(part)
			if err != nil {
				continue
			}
			if q, ok := params["q"]; ok && (q == "0" || q == "0.0" || q == "0.00" || q == "0.000") {
				continue
			}
			for _, candidate := range mediaTypes {
				if candidate.MediaType == mediaType {
					return candidate.Codec
				}
			}
		}
	}
	return nil
}
