package pipeline

import (
	"strings"

	"nanpa/internal"
	"nanpa/internal/classify"
	"nanpa/internal/util"
)

// Header spellings seen across NANPA report generations, in lookup order.
var (
	combinedKeys   = []string{"NPA-NXX", "NPA NXX"}
	npaKeys        = []string{"NPA"}
	nxxKeys        = []string{"NXX"}
	companyKeys    = []string{"Company", "Operating Company Name", "OCN Company Name"}
	ocnKeys        = []string{"OCN"}
	rateCenterKeys = []string{"RateCenter", "Rate Center", "Rate Center Name"}
	stateKeys      = []string{"State", "ST"}
)

var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "DC": "District of Columbia", "FL": "Florida",
	"GA": "Georgia", "HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana",
	"IA": "Iowa", "KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire",
	"NJ": "New Jersey", "NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota",
	"OH": "Ohio", "OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin",
	"WY": "Wyoming",
}

// Normalizer turns raw rows into classified prefix records.
type Normalizer struct {
	classifier *classify.Classifier
}

func NewNormalizer(c *classify.Classifier) *Normalizer {
	return &Normalizer{classifier: c}
}

// Normalize returns false when the row carries no usable NPA-NXX.
func (n *Normalizer) Normalize(row Row, source string) (internal.PrefixRecord, bool) {
	npa, nxx, ok := ParsePrefix(row)
	if !ok {
		return internal.PrefixRecord{}, false
	}

	company := util.FirstValue(row, companyKeys...)
	rateCenter := util.FirstValue(row, rateCenterKeys...)
	brand := n.classifier.Brand(company)

	return internal.PrefixRecord{
		Prefix:          npa + nxx,
		OCN:             util.FirstValue(row, ocnKeys...),
		Company:         company,
		CompanyOriginal: company,
		Carrier:         n.classifier.Carrier(company),
		Type:            n.classifier.Type(company, brand),
		RateCenter:      rateCenter,
		City:            util.TitleName(rateCenter),
		State:           StateName(util.FirstValue(row, stateKeys...)),
		LastSource:      source,
	}, true
}

// ParsePrefix resolves NPA and NXX from a combined column ("212-555" or
// "212555") or from separate NPA/NXX columns. Both parts must be exactly
// three ASCII digits.
func ParsePrefix(row Row) (npa, nxx string, ok bool) {
	combined := util.FirstValue(row, combinedKeys...)

	if a, b, found := strings.Cut(combined, "-"); found {
		a, b = strings.TrimSpace(a), strings.TrimSpace(b)
		if validPart(a) && validPart(b) {
			return a, b, true
		}
	} else if len(combined) == 6 && util.IsDigits(combined) {
		return combined[:3], combined[3:], true
	}

	a := util.FirstValue(row, npaKeys...)
	b := util.FirstValue(row, nxxKeys...)
	if validPart(a) && validPart(b) {
		return a, b, true
	}
	return "", "", false
}

func validPart(s string) bool {
	return len(s) == 3 && util.IsDigits(s)
}

// StateName expands a two-letter code; unknown codes are returned as given.
func StateName(code string) string {
	code = strings.TrimSpace(code)
	if name, ok := stateNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// PrefixFromInput extracts a prefix from user input such as "212-555",
// "(212) 555-1234" or "+1 212 555 1234".
func PrefixFromInput(input string) (string, bool) {
	digits := make([]byte, 0, len(input))
	for i := 0; i < len(input); i++ {
		if input[i] >= '0' && input[i] <= '9' {
			digits = append(digits, input[i])
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	switch len(digits) {
	case 6, 10:
		return string(digits[:6]), true
	default:
		return "", false
	}
}
