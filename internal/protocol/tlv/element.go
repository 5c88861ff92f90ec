package tlv

// Element is a decoded element of any type. Primitives carry Value;
// containers carry Children in wire order.
type Element struct {
	Tag      Tag
	Type     ElementType
	Value    Value
	Children []Element
}

// Primitive builds a leaf element carrying v, typed as a Writer would
// encode it.
func Primitive(tag Tag, v Value) Element {
	return Element{Tag: tag, Type: v.wireType(), Value: v}
}

// Container builds a structure, array or list element.
func Container(tag Tag, typ ElementType, children ...Element) Element {
	if children == nil {
		children = []Element{}
	}
	return Element{Tag: tag, Type: typ, Children: children}
}

// IsContainer reports whether e is a structure, array or list.
func (e Element) IsContainer() bool { return e.Type.IsContainer() }

// Child returns the first direct child tagged tag.
func (e Element) Child(tag Tag) (Element, bool) {
	for _, c := range e.Children {
		if c.Tag == tag {
			return c, true
		}
	}
	return Element{}, false
}

// ReadElement reads the next element, whatever its tag, including all of its
// nested content. Nesting is bounded by the reader's depth limit.
func ReadElement(r *Reader) (Element, error) {
	h, err := r.Peek()
	if err != nil {
		return Element{}, err
	}
	if h.Type == TypeEndOfContainer {
		return Element{}, newError(KindUnbalancedContainer, "ReadElement", h.Offset, "found end of container")
	}
	if !h.Type.IsContainer() {
		v, err := r.GetValue(h.Tag)
		if err != nil {
			return Element{}, err
		}
		return Element{Tag: h.Tag, Type: h.Type, Value: v}, nil
	}
	if err := r.enter("ReadElement", h.Tag, h.Type); err != nil {
		return Element{}, err
	}
	e := Element{Tag: h.Tag, Type: h.Type, Children: []Element{}}
	for {
		end, err := r.IsEndOfContainer()
		if err != nil {
			return Element{}, err
		}
		if end {
			break
		}
		child, err := ReadElement(r)
		if err != nil {
			return Element{}, err
		}
		e.Children = append(e.Children, child)
	}
	if err := r.ExitContainer(); err != nil {
		return Element{}, err
	}
	return e, nil
}

// WriteElement writes e and its children. Primitives keep e.Type, so a
// parsed tree re-encodes to the same bytes.
func WriteElement(w *Writer, e Element) error {
	switch e.Type {
	case TypeStructure, TypeArray, TypeList:
		if err := w.start("WriteElement", e.Tag, e.Type); err != nil {
			return err
		}
		for _, c := range e.Children {
			if err := WriteElement(w, c); err != nil {
				return err
			}
		}
		return w.EndContainer()
	default:
		return w.PutTyped(e.Tag, e.Type, e.Value)
	}
}

// ParseElement decodes exactly one top-level element from data.
func ParseElement(data []byte, limits Limits) (Element, error) {
	r := NewReader(data, limits)
	e, err := ReadElement(r)
	if err != nil {
		return Element{}, err
	}
	if err := r.Complete(); err != nil {
		return Element{}, err
	}
	return e, nil
}
