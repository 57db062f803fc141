package domain

import (
	"slices"
	"strconv"
	"strings"
)

// LineKey identifies a cart line by what was chosen, not when. Two
// selections with the same product, size, flavor set, extra set and note
// share a key.
type LineKey string

// NewLineKey encodes the canonical tuple (product, size, sorted flavors,
// sorted extras, note). Each segment is length-prefixed so ids containing
// separators cannot collide.
func NewLineKey(productID string, sel Selection) LineKey {
	flavors := slices.Clone(sel.FlavorIDs)
	slices.Sort(flavors)

	extras := make([]string, 0, len(sel.Extras))
	for _, e := range sel.Extras {
		if e.Quantity > 0 {
			extras = append(extras, e.ExtraID)
		}
	}
	slices.Sort(extras)
	extras = slices.Compact(extras)

	var b strings.Builder
	writeSegment(&b, productID)
	writeSegment(&b, sel.SizeID)
	writeList(&b, flavors)
	writeList(&b, extras)
	writeSegment(&b, strings.TrimSpace(sel.Note))
	return LineKey(b.String())
}

func writeSegment(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}

func writeList(b *strings.Builder, items []string) {
	b.WriteByte('[')
	for _, s := range items {
		writeSegment(b, s)
	}
	b.WriteByte(']')
}
