package transcode

import (
	"encoding/base64"
	"math"
	"strconv"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"gopkg.in/yaml.v3"
)

// ToYAML renders e with the same typed keys as ToJSON. Member order is
// preserved.
func ToYAML(e tlv.Element) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content, yamlKey(e), yamlValue(e))
	return yaml.Marshal(doc)
}

func yamlKey(e tlv.Element) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: elementKey(e)}
}

func yamlValue(e tlv.Element) *yaml.Node {
	switch e.Type {
	case tlv.TypeStructure:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range e.Children {
			n.Content = append(n.Content, yamlKey(c), yamlValue(c))
		}
		return n
	case tlv.TypeArray, tlv.TypeList:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range e.Children {
			item := &yaml.Node{Kind: yaml.MappingNode}
			item.Content = append(item.Content, yamlKey(c), yamlValue(c))
			n.Content = append(n.Content, item)
		}
		return n
	}
	return yamlScalar(e.Value)
}

func yamlScalar(v tlv.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.Class() {
	case tlv.ClassBool:
		b, _ := v.Bool()
		n.Tag, n.Value = "!!bool", strconv.FormatBool(b)
	case tlv.ClassSignedInt:
		i, _ := v.Int()
		n.Tag, n.Value = "!!int", strconv.FormatInt(i, 10)
	case tlv.ClassUnsignedInt:
		u, _ := v.Uint()
		n.Tag, n.Value = "!!int", strconv.FormatUint(u, 10)
	case tlv.ClassFloat:
		f, _ := v.Float()
		n.Tag = "!!float"
		switch {
		case math.IsNaN(f):
			n.Value = ".nan"
		case math.IsInf(f, 1):
			n.Value = ".inf"
		case math.IsInf(f, -1):
			n.Value = "-.inf"
		default:
			bits := 64
			if v.IsSingle() {
				bits = 32
			}
			n.Value = strconv.FormatFloat(f, 'g', -1, bits)
		}
	case tlv.ClassString:
		s, _ := v.Text()
		n.Tag, n.Value = "!!str", s
	case tlv.ClassBytes:
		b, _ := v.Bytes()
		n.Tag, n.Value = "!!binary", base64.StdEncoding.EncodeToString(b)
	default:
		n.Tag, n.Value = "!!null", "null"
	}
	return n
}
