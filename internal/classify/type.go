package classify

import (
	"nanpa/internal"
	"nanpa/internal/util"
)

// Type classifies company into a service type. A wireless parent brand is
// always Mobile; otherwise the type families are tried in order. No match
// yields TypeUnknown.
func (c *Classifier) Type(company, brand string) internal.ServiceType {
	if _, ok := c.parents[brand]; ok && brand != "" {
		return internal.TypeMobile
	}
	upper := normalizeCompany(company)
	if upper == "" {
		return internal.TypeUnknown
	}
	for _, rule := range c.rules.Types {
		if util.ContainsAny(upper, rule.Keywords) {
			return rule.Type
		}
	}
	return internal.TypeUnknown
}
