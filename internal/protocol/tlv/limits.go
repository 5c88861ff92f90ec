package tlv

// Limits bounds the resources one session may use on hostile input.
type Limits struct {
	// MaxDepth is the deepest container nesting accepted.
	MaxDepth int
	// MaxStringLength caps a single UTF-8 or byte string payload.
	MaxStringLength uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxDepth:        32,
		MaxStringLength: 1 << 20,
	}
}

// normalize fills unset fields from DefaultLimits.
func (l Limits) normalize() Limits {
	def := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	if l.MaxStringLength == 0 {
		l.MaxStringLength = def.MaxStringLength
	}
	return l
}
