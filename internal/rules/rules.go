// Package rules loads the keyword tables that drive brand and service-type
// classification. Rule sets are plain YAML so operators can retune keywords
// without a rebuild.
package rules

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"nanpa/internal"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

const DefaultProfile = "parent"

var ErrInvalidRules = errors.New("invalid rule set")

type BrandRule struct {
	Brand    string   `yaml:"brand"`
	Keywords []string `yaml:"keywords"`
}

type TypeRule struct {
	Type     internal.ServiceType `yaml:"type"`
	Keywords []string             `yaml:"keywords"`
}

// RuleSet is evaluated top-down; within each list the first match wins.
type RuleSet struct {
	Brands          []BrandRule `yaml:"brands"`
	WirelessParents []string    `yaml:"wireless_parents"`
	Types           []TypeRule  `yaml:"types"`
}

// Profile returns one of the embedded rule sets ("parent" or "carrier").
func Profile(name string) (RuleSet, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultProfile
	}
	blob, err := profileFS.ReadFile("profiles/" + name + ".yaml")
	if err != nil {
		return RuleSet{}, fmt.Errorf("unknown rules profile %q", name)
	}
	return Parse(blob)
}

func Load(path string) (RuleSet, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, err
	}
	rs, err := Parse(blob)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Resolve prefers an explicit rules file over the named profile.
func Resolve(path, profile string) (RuleSet, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	return Profile(profile)
}

func Parse(blob []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(blob, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if err := rs.normalize(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// normalize uppercases keywords and rejects rules that could never match
// or that name an unknown outcome.
func (rs *RuleSet) normalize() error {
	for i := range rs.Brands {
		b := &rs.Brands[i]
		b.Brand = strings.TrimSpace(b.Brand)
		if b.Brand == "" {
			return fmt.Errorf("%w: brand rule %d has no brand name", ErrInvalidRules, i+1)
		}
		kws, err := upperKeywords(b.Keywords)
		if err != nil {
			return fmt.Errorf("%w: brand %s: %v", ErrInvalidRules, b.Brand, err)
		}
		b.Keywords = kws
	}
	for i := range rs.Types {
		tr := &rs.Types[i]
		if tr.Type == internal.TypeUnknown || !tr.Type.Valid() {
			return fmt.Errorf("%w: type rule %d has unknown outcome %q", ErrInvalidRules, i+1, tr.Type)
		}
		kws, err := upperKeywords(tr.Keywords)
		if err != nil {
			return fmt.Errorf("%w: type %s: %v", ErrInvalidRules, tr.Type, err)
		}
		tr.Keywords = kws
	}
	parents := rs.WirelessParents[:0]
	for _, p := range rs.WirelessParents {
		if p = strings.TrimSpace(p); p != "" {
			parents = append(parents, p)
		}
	}
	rs.WirelessParents = parents
	return nil
}

// Keywords keep their inner spacing: "METRO " must not match "METROPOLITAN".
func upperKeywords(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out = append(out, strings.ToUpper(kw))
	}
	if len(out) == 0 {
		return nil, errors.New("no keywords")
	}
	return out, nil
}
