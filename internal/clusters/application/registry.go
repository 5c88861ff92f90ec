package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danmuck/tlvcodec/internal/protocol/schema"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

var (
	ErrStructureExists = errors.New("structure already registered")
	ErrInvalidName     = errors.New("invalid structure name")
)

// Descriptor is a type-erased handle on one structure codec, used where
// the structure is chosen at runtime (the CLI).
type Descriptor struct {
	Name        string
	Description string

	decode func(data []byte, limits tlv.Limits) (fmt.Stringer, error)
	fields func() []string
}

// Decode unmarshals a single top-level structure.
func (d Descriptor) Decode(data []byte, limits tlv.Limits) (fmt.Stringer, error) {
	return d.decode(data, limits)
}

// FieldNames lists member names in tag order.
func (d Descriptor) FieldNames() []string {
	return d.fields()
}

// Describe builds a Descriptor for codec.
func Describe[T fmt.Stringer](name, description string, codec *schema.Struct[T]) Descriptor {
	return Descriptor{
		Name:        name,
		Description: description,
		decode: func(data []byte, limits tlv.Limits) (fmt.Stringer, error) {
			v, err := schema.Unmarshal[T](codec, data, limits)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		fields: func() []string {
			fs := codec.Fields()
			names := make([]string, len(fs))
			for i, f := range fs {
				names[i] = f.Name
			}
			return names
		},
	}
}

// Registry stores structure descriptors by name.
type Registry struct {
	items map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Descriptor)}
}

// DefaultRegistry holds every structure in this package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range []Descriptor{
		Describe("application", "Application Basic: catalog vendor id + application id", applicationCodec),
		Describe("application-ep", "Application Launcher: application + optional endpoint", applicationEPCodec),
		Describe("dimension", "Content Launcher: width, height, metric", dimensionCodec),
		Describe("additional-info", "Content Launcher: name/value pair", additionalInfoCodec),
		Describe("parameter", "Content Launcher: search parameter", parameterCodec),
		Describe("content-search", "Content Launcher: parameter list", contentSearchCodec),
		Describe("playback-position", "Media Playback: updatedAt + nullable position", playbackPositionCodec),
	} {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(d Descriptor) error {
	name := strings.TrimSpace(d.Name)
	if !isValidName(name) || d.decode == nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, d.Name)
	}
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrStructureExists, name)
	}
	d.Name = name
	r.items[name] = d
	return nil
}

func (r *Registry) Resolve(name string) (Descriptor, bool) {
	d, ok := r.items[name]
	return d, ok
}

// List returns descriptors ordered by name.
func (r *Registry) List() []Descriptor {
	list := make([]Descriptor, 0, len(r.items))
	for _, d := range r.items {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '-'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if (i == 0 || i == len(name)-1) && isSep {
			return false
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
