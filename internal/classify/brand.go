package classify

import "nanpa/internal/util"

// Brand returns the first brand whose keywords appear in company, or "".
func (c *Classifier) Brand(company string) string {
	upper := normalizeCompany(company)
	if upper == "" {
		return ""
	}
	for _, rule := range c.rules.Brands {
		if util.ContainsAny(upper, rule.Keywords) {
			return rule.Brand
		}
	}
	return ""
}
