package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanpa/internal"
	"nanpa/internal/rules"
)

func parentClassifier(t *testing.T) *Classifier {
	t.Helper()
	rs, err := rules.Profile("parent")
	require.NoError(t, err)
	return New(rs)
}

func TestParentProfile(t *testing.T) {
	c := parentClassifier(t)
	cases := []struct {
		company string
		carrier string
		typ     internal.ServiceType
	}{
		{"AT&T Mobility LLC", "AT&T", internal.TypeMobile},
		{"New Cingular Wireless PCS, LLC - GA", "AT&T", internal.TypeMobile},
		{"Cellco Partnership dba Verizon Wireless", "Verizon", internal.TypeMobile},
		{"Sprint Spectrum L.P.", "T-Mobile", internal.TypeMobile},
		{"United States Cellular Corp.", "UScellular", internal.TypeMobile},
		{"Boost Mobile, LLC", "DISH", internal.TypeMobile},
		{"Frontier Communications of America", "Frontier Communications of America", internal.TypeLandline},
		{"Level 3 Communications, LLC", "Level 3 Communications, LLC", internal.TypeVoIP},
		{"Bandwidth.com CLEC, LLC", "Bandwidth.com CLEC, LLC", internal.TypeVoIP},
		{"American Messaging Services", "American Messaging Services", internal.TypePaging},
		{"Acme Rural Telephone Cooperative", "Acme Rural Telephone Cooperative", internal.TypeUnknown},
		{"", "", internal.TypeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.company, func(t *testing.T) {
			brand := c.Brand(tc.company)
			require.Equal(t, tc.carrier, c.Carrier(tc.company))
			require.Equal(t, tc.typ, c.Type(tc.company, brand))
		})
	}
}

func TestWirelessOutranksLandlineBrand(t *testing.T) {
	c := parentClassifier(t)
	require.Equal(t, internal.TypeMobile, c.Type("Comcast Wireless Holdings", ""))
}

func TestBrandOrderIsPrecedence(t *testing.T) {
	c := New(rules.RuleSet{
		Brands: []rules.BrandRule{
			{Brand: "First", Keywords: []string{"SHARED"}},
			{Brand: "Second", Keywords: []string{"SHARED", "OTHER"}},
		},
	})
	require.Equal(t, "First", c.Brand("shared networks"))
	require.Equal(t, "Second", c.Brand("Other Networks"))
	require.Equal(t, "", c.Brand("Nothing Here"))
}

func TestUnmatchedCompanyIsNeverGuessed(t *testing.T) {
	c := New(rules.RuleSet{})
	require.Equal(t, "Mystery Telco", c.Carrier("Mystery Telco"))
	require.Equal(t, internal.TypeUnknown, c.Type("Mystery Telco", ""))
}

func TestNonParentBrandFallsThroughToTypeRules(t *testing.T) {
	c := New(rules.RuleSet{
		Brands:          []rules.BrandRule{{Brand: "Acme", Keywords: []string{"ACME"}}},
		WirelessParents: []string{"Other"},
		Types:           []rules.TypeRule{{Type: internal.TypeLandline, Keywords: []string{"ACME"}}},
	})
	require.Equal(t, internal.TypeLandline, c.Type("Acme Telephone", "Acme"))
}
