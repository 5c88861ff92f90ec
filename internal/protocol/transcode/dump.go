package transcode

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
)

// Dump writes e as indented text, one element per line:
//
//	anonymous structure
//	  0 uint8 123
//	  1 utf8/1 "abc"
//	end
func Dump(w io.Writer, e tlv.Element) error {
	return dump(w, e, 0)
}

// DumpString is Dump into a string.
func DumpString(e tlv.Element) string {
	var b strings.Builder
	_ = Dump(&b, e)
	return b.String()
}

func dump(w io.Writer, e tlv.Element, depth int) error {
	pad := strings.Repeat("  ", depth)
	if !e.IsContainer() {
		_, err := fmt.Fprintf(w, "%s%s %s %s\n", pad, e.Tag, e.Type, e.Value)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s %s\n", pad, e.Tag, e.Type); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := dump(w, c, depth+1); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%send\n", pad)
	return err
}
