// Package classify resolves a raw NANPA company string to a parent brand and
// a service type using an ordered rules.RuleSet.
package classify

import (
	"strings"

	"nanpa/internal/rules"
)

type Classifier struct {
	rules   rules.RuleSet
	parents map[string]struct{}
}

func New(rs rules.RuleSet) *Classifier {
	parents := make(map[string]struct{}, len(rs.WirelessParents))
	for _, p := range rs.WirelessParents {
		parents[p] = struct{}{}
	}
	return &Classifier{rules: rs, parents: parents}
}

// Carrier returns the resolved parent brand, falling back to the company
// string exactly as given.
func (c *Classifier) Carrier(company string) string {
	if brand := c.Brand(company); brand != "" {
		return brand
	}
	return company
}

func normalizeCompany(company string) string {
	return strings.ToUpper(company)
}
