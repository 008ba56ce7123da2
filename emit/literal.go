package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// ByteLiteral renders data as a Rust byte string. Printable ASCII other than
// the quote and the backslash is kept, everything else is \xHH.
func ByteLiteral(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) + 3)
	b.WriteString(`b"`)
	for _, c := range data {
		if c >= 33 && c <= 126 && c != '"' && c != '\\' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, `\x%02X`, c)
	}
	b.WriteByte('"')
	return b.String()
}

var debugConfig = spew.ConfigState{
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// spew's %+v prints pointer chains even with DisablePointerAddresses set
var pointerChain = regexp.MustCompile(`\(0x[0-9a-f]+(->0x[0-9a-f]+)*\)`)

// DebugInstance renders a generated instance on one line for a test comment.
// Pointer addresses are dropped so equal instances render equally.
func DebugInstance(v any) string {
	s := pointerChain.ReplaceAllString(debugConfig.Sprintf("%+v", v), "")
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(s)
}
