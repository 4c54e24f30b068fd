package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nanpa/internal"
)

func TestEmbeddedProfiles(t *testing.T) {
	for _, name := range []string{"parent", "carrier", ""} {
		rs, err := Profile(name)
		require.NoError(t, err, name)
		require.Len(t, rs.Brands, 5)
		require.Len(t, rs.Types, 4)
		require.Equal(t, internal.TypeMobile, rs.Types[0].Type)
	}
}

func TestUnknownProfile(t *testing.T) {
	_, err := Profile("nope")
	require.Error(t, err)
}

func TestParseUppercasesKeywords(t *testing.T) {
	rs, err := Parse([]byte(`
brands:
  - brand: Acme
    keywords: ["acme tel", "  "]
types:
  - type: Landline
    keywords: ["acme"]
`))
	require.NoError(t, err)
	require.Equal(t, []string{"ACME TEL"}, rs.Brands[0].Keywords)
	require.Equal(t, []string{"ACME"}, rs.Types[0].Keywords)
}

func TestParseRejectsBadRules(t *testing.T) {
	bad := map[string]string{
		"unknown type": "types:\n  - type: Satellite\n    keywords: [SAT]\n",
		"blank type":   "types:\n  - type: \"\"\n    keywords: [SAT]\n",
		"no keywords":  "brands:\n  - brand: Acme\n    keywords: []\n",
		"no brand":     "brands:\n  - brand: \" \"\n    keywords: [X]\n",
		"not yaml":     "brands: [",
	}
	for name, doc := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.ErrorIs(t, err, ErrInvalidRules)
		})
	}
}

func TestResolvePrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := "brands:\n  - brand: Acme\n    keywords: [ACME]\nwireless_parents: [Acme]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	rs, err := Resolve(path, "carrier")
	require.NoError(t, err)
	require.Len(t, rs.Brands, 1)
	require.Equal(t, []string{"Acme"}, rs.WirelessParents)

	rs, err = Resolve("", "carrier")
	require.NoError(t, err)
	require.Len(t, rs.Brands, 5)
}
