package enrich

import (
	"strconv"
	"strings"

	"github.com/jonathan/wins-exporter/internal/dates"
	"github.com/jonathan/wins-exporter/internal/jsontree"
	"github.com/jonathan/wins-exporter/internal/types"
)

// Synonymous keys searched for each detail field. Within one object the first
// matching member in document order wins.
var (
	PrimaryDateKeys  = []string{"mintDate", "mint_date", "mintAt", "mintTime", "mint"}
	QuantityKeys     = []string{"supply", "maxSupply", "totalSupply"}
	PriceKeys        = []string{"wlPrice", "price", "mintPrice"}
	ExternalLinkKeys = []string{"twitterUrl", "twitter", "twitter_link"}
)

// ParseDetail extracts the optional detail fields from a decoded detail document.
// Each field is located by a bounded search for the first matching key anywhere in the tree.
func ParseDetail(root *jsontree.Value, nodeBudget int) types.DetailResult {
	var detail types.DetailResult

	if mint, ok := dates.FromValue(jsontree.FindFirstKey(root, PrimaryDateKeys, nodeBudget)); ok {
		detail.PrimaryDate = &mint
	}
	detail.Quantity = types.StringPtr(quantityText(jsontree.FindFirstKey(root, QuantityKeys, nodeBudget)))
	detail.Price = types.StringPtr(priceText(jsontree.FindFirstKey(root, PriceKeys, nodeBudget)))
	detail.ExternalLink = types.StringPtr(stringText(jsontree.FindFirstKey(root, ExternalLinkKeys, nodeBudget)))

	return detail
}

// quantityText renders supplies as whole numbers.
func quantityText(v *jsontree.Value) string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case jsontree.Number:
		if n, err := v.Number.Int64(); err == nil {
			return strconv.FormatInt(n, 10)
		}
		if f, err := v.Number.Float64(); err == nil {
			return strconv.FormatInt(int64(f), 10)
		}
		return ""
	case jsontree.String:
		return strings.TrimSpace(v.Str)
	default:
		return ""
	}
}

// priceText keeps the number exactly as written in the document.
func priceText(v *jsontree.Value) string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case jsontree.Number:
		return v.Number.String()
	case jsontree.String:
		return strings.TrimSpace(v.Str)
	default:
		return ""
	}
}

func stringText(v *jsontree.Value) string {
	if v == nil || v.Kind != jsontree.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}
