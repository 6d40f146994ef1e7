package messages

import (
	"fmt"
	"strings"

	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/domain"
)

// CaptureOption is one numbered choice offered when a requested product
// matched several catalog entries.
type CaptureOption struct {
	Number        int
	RequestedName string
	Product       domain.Product
}

// CaptureMiss is a requested product that could not be added, with the
// reason shown to the user.
type CaptureMiss struct {
	Name   string
	Reason string
}

// CaptureSummary renders the structured result of one product-list
// message: added lines, ambiguous options awaiting resolution, and
// requests that could not be served.
func CaptureSummary(added []cart.Line, ambiguous []CaptureOption, missed []CaptureMiss) string {
	var b strings.Builder

	if len(added) > 0 {
		b.WriteString("✅ Agregado a tu carrito:\n")
		for _, line := range added {
			b.WriteString(fmt.Sprintf("• %d x %s · %s\n", line.Quantity, line.Name, FormatCLP(line.LineTotal)))
		}
	}

	if len(missed) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("⚠️ No pude agregar:\n")
		for _, m := range missed {
			b.WriteString("• " + m.Name)
			if m.Reason != "" {
				b.WriteString(" (" + m.Reason + ")")
			}
			b.WriteString("\n")
		}
	}

	if len(ambiguous) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("🔎 Encontré varias opciones:\n")
		lastRequested := ""
		for _, opt := range ambiguous {
			if opt.RequestedName != lastRequested {
				b.WriteString(fmt.Sprintf("Para %q:\n", opt.RequestedName))
				lastRequested = opt.RequestedName
			}
			b.WriteString(fmt.Sprintf("%d️⃣ %s · %s\n", opt.Number, opt.Product.Name, FormatCLP(opt.Product.UnitPrice)))
		}
		b.WriteString("\n" + AmbiguousPrompt)
	}

	return strings.TrimRight(b.String(), "\n")
}
