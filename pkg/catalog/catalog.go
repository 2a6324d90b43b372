// Package catalog holds the read-only rule data a character sheet is checked
// against: attribute names, origins, skills and perks.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog is returned when a catalog document is malformed or
// internally inconsistent
var ErrInvalidCatalog = errors.New("invalid catalog")

// SkillID is the index of a skill in Catalog.Skills
type SkillID int

// PerkID is the index of a perk in Catalog.Perks
type PerkID int

// OriginID is the index of an origin in Catalog.Origins
type OriginID int

// NoOrigin marks a player without a selected origin
const NoOrigin OriginID = -1

// Names that requirements can refer to besides attributes
const (
	LevelKey  = "LVL"
	OriginKey = "ORIGIN"
)

// Defaults used when a catalog document leaves the field out
const (
	DefaultMaxSkillRank    = 6
	DefaultAttributeMin    = 4
	DefaultAttributeMax    = 10
	DefaultAttributeValue  = 5
	maxSkillRankUpperBound = 10
)

// DerivedStatAttributes are the attributes the derived stat formulas read.
// A catalog missing any of them can still hold records, but their derived
// stats cannot be recomputed.
var DerivedStatAttributes = []string{"STR", "END", "AGI", "LCK"}

//go:embed default.yaml
var defaultCatalog []byte

// Perk is one entry of the perk catalog.
//
// Requirements[i] gates unlocking rank i+1, so len(Requirements) == MaxRank.
type Perk struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	MaxRank      int            `yaml:"max_rank"`
	Requirements []Requirements `yaml:"requirements"`
}

// Catalog is the rule data for one ruleset. It is immutable once loaded.
type Catalog struct {
	MaxSkillRank     int      `yaml:"max_skill_rank"`
	AttributeMin     int      `yaml:"attribute_min"`
	AttributeMax     int      `yaml:"attribute_max"`
	DefaultAttribute int      `yaml:"default_attribute"`
	Attributes       []string `yaml:"attributes"`
	Origins          []string `yaml:"origins"`
	Skills           []string `yaml:"skills"`
	Perks            []Perk   `yaml:"perks"`
	ExclusivePerks   []PerkID `yaml:"exclusive_perks"`

	// OriginAttributeMax raises the attribute_max of an attribute for one
	// origin, e.g. a Super mutant's STR and END
	OriginAttributeMax map[OriginID]map[string]int `yaml:"origin_attribute_max"`
}

// Parse decodes and validates a YAML catalog document
func Parse(data []byte) (*Catalog, error) {
	c := Catalog{
		MaxSkillRank:     DefaultMaxSkillRank,
		AttributeMin:     DefaultAttributeMin,
		AttributeMax:     DefaultAttributeMax,
		DefaultAttribute: DefaultAttributeValue,
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a YAML catalog from fs
func Load(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}
	return c, nil
}

// Default returns the built-in Fallout ruleset
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// Validate checks the catalog for internal consistency
func (c *Catalog) Validate() error {
	if c.MaxSkillRank < 1 || c.MaxSkillRank > maxSkillRankUpperBound {
		return fmt.Errorf("%w: max_skill_rank must be between 1 and %d, got %d", ErrInvalidCatalog, maxSkillRankUpperBound, c.MaxSkillRank)
	}
	if c.AttributeMin < 0 {
		return fmt.Errorf("%w: attribute_min must not be negative, got %d", ErrInvalidCatalog, c.AttributeMin)
	}
	if c.AttributeMin > c.AttributeMax {
		return fmt.Errorf("%w: attribute_min %d exceeds attribute_max %d", ErrInvalidCatalog, c.AttributeMin, c.AttributeMax)
	}
	if c.DefaultAttribute < c.AttributeMin || c.DefaultAttribute > c.AttributeMax {
		return fmt.Errorf("%w: default_attribute %d outside [%d, %d]", ErrInvalidCatalog, c.DefaultAttribute, c.AttributeMin, c.AttributeMax)
	}
	if len(c.Attributes) == 0 {
		return fmt.Errorf("%w: no attributes", ErrInvalidCatalog)
	}

	seen := make(map[string]bool, len(c.Attributes))
	for _, name := range c.Attributes {
		switch {
		case name == "":
			return fmt.Errorf("%w: empty attribute name", ErrInvalidCatalog)
		case name == LevelKey || name == OriginKey:
			return fmt.Errorf("%w: attribute name %q is reserved", ErrInvalidCatalog, name)
		case seen[name]:
			return fmt.Errorf("%w: duplicate attribute %q", ErrInvalidCatalog, name)
		}
		seen[name] = true
	}

	for origin, limits := range c.OriginAttributeMax {
		if origin == NoOrigin || !c.ValidOrigin(origin) {
			return fmt.Errorf("%w: origin_attribute_max: unknown origin %d", ErrInvalidCatalog, origin)
		}
		for name, limit := range limits {
			if !seen[name] {
				return fmt.Errorf("%w: origin_attribute_max: unknown attribute %q for origin %d", ErrInvalidCatalog, name, origin)
			}
			if limit < c.AttributeMin {
				return fmt.Errorf("%w: origin_attribute_max: %s %d for origin %d is below attribute_min %d", ErrInvalidCatalog, name, limit, origin, c.AttributeMin)
			}
		}
	}

	for i, perk := range c.Perks {
		if perk.Name == "" {
			return fmt.Errorf("%w: perk %d has no name", ErrInvalidCatalog, i)
		}
		if perk.MaxRank < 1 {
			return fmt.Errorf("%w: perk %q: max_rank must be at least 1", ErrInvalidCatalog, perk.Name)
		}
		if len(perk.Requirements) != perk.MaxRank {
			return fmt.Errorf("%w: perk %q: %d requirement entries for max_rank %d", ErrInvalidCatalog, perk.Name, len(perk.Requirements), perk.MaxRank)
		}
		for rank, reqs := range perk.Requirements {
			for _, req := range reqs {
				if !c.Resolvable(req.Name) {
					return fmt.Errorf("%w: perk %q rank %d: unknown requirement %q", ErrInvalidCatalog, perk.Name, rank+1, req.Name)
				}
				if req.Threshold.IsMembership() && len(req.Threshold.values) == 0 {
					return fmt.Errorf("%w: perk %q rank %d: empty set for %q", ErrInvalidCatalog, perk.Name, rank+1, req.Name)
				}
			}
		}
	}

	if len(c.ExclusivePerks) != 0 {
		if len(c.ExclusivePerks) != 2 || c.ExclusivePerks[0] == c.ExclusivePerks[1] {
			return fmt.Errorf("%w: exclusive_perks must name two distinct perks", ErrInvalidCatalog)
		}
		for _, id := range c.ExclusivePerks {
			if _, ok := c.Perk(id); !ok {
				return fmt.Errorf("%w: exclusive perk %d not in catalog", ErrInvalidCatalog, id)
			}
		}
	}

	return nil
}

// HasAttribute reports whether name is one of the catalog attributes
func (c *Catalog) HasAttribute(name string) bool {
	return slices.Contains(c.Attributes, name)
}

// MissingDerivedAttributes lists the DerivedStatAttributes the catalog does
// not define
func (c *Catalog) MissingDerivedAttributes() []string {
	var missing []string
	for _, name := range DerivedStatAttributes {
		if !c.HasAttribute(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// AttributeBounds returns the inclusive range a player of the given origin
// may set attribute name to
func (c *Catalog) AttributeBounds(origin OriginID, name string) (lo, hi int) {
	hi = c.AttributeMax
	if limit, ok := c.OriginAttributeMax[origin][name]; ok {
		hi = limit
	}
	return c.AttributeMin, hi
}

// Resolvable reports whether a requirement may refer to name
func (c *Catalog) Resolvable(name string) bool {
	return name == LevelKey || name == OriginKey || c.HasAttribute(name)
}

// ValidOrigin reports whether id is NoOrigin or an index into Origins
func (c *Catalog) ValidOrigin(id OriginID) bool {
	return id == NoOrigin || (id >= 0 && int(id) < len(c.Origins))
}

// Origin returns the origin name for id
func (c *Catalog) Origin(id OriginID) (string, bool) {
	if id < 0 || int(id) >= len(c.Origins) {
		return "", false
	}
	return c.Origins[id], true
}

// Skill returns the skill name for id
func (c *Catalog) Skill(id SkillID) (string, bool) {
	if id < 0 || int(id) >= len(c.Skills) {
		return "", false
	}
	return c.Skills[id], true
}

// Perk returns the perk entry for id
func (c *Catalog) Perk(id PerkID) (*Perk, bool) {
	if id < 0 || int(id) >= len(c.Perks) {
		return nil, false
	}
	return &c.Perks[id], true
}

// ExclusivePartner returns the other member of the mutually exclusive perk
// pair when id belongs to it.
func (c *Catalog) ExclusivePartner(id PerkID) (PerkID, bool) {
	if len(c.ExclusivePerks) != 2 {
		return 0, false
	}
	switch id {
	case c.ExclusivePerks[0]:
		return c.ExclusivePerks[1], true
	case c.ExclusivePerks[1]:
		return c.ExclusivePerks[0], true
	}
	return 0, false
}
