package catalog

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const minimalCatalog = `
attributes: [STR, AGI]
origins: [Vault, Wastes]
skills: [Guns, Repair]
perks:
  - name: Gunner
    max_rank: 2
    requirements:
      - {AGI: 6, LVL: 1}
      - {AGI: 6, ORIGIN: [0, 1], LVL: 4}
  - name: Bold
    max_rank: 1
    requirements:
      - {}
  - name: Careful
    max_rank: 1
    requirements:
      - {}
exclusive_perks: [1, 2]
`

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"STR", "PER", "END", "CHA", "INT", "AGI", "LCK"}, c.Attributes)
	assert.Equal(t, 6, c.MaxSkillRank)
	assert.Equal(t, 5, c.DefaultAttribute)
	assert.Len(t, c.Skills, 17)
	require.Len(t, c.ExclusivePerks, 2)

	daring, ok := c.Perk(c.ExclusivePerks[0])
	require.True(t, ok)
	assert.Equal(t, "Nature audacieuse", daring.Name)
	cautious, ok := c.Perk(c.ExclusivePerks[1])
	require.True(t, ok)
	assert.Equal(t, "Nature prudente", cautious.Name)
}

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxSkillRank, c.MaxSkillRank)
	assert.Equal(t, DefaultAttributeMin, c.AttributeMin)
	assert.Equal(t, DefaultAttributeMax, c.AttributeMax)
	assert.Equal(t, DefaultAttributeValue, c.DefaultAttribute)
}

func TestParseKeepsExplicitZero(t *testing.T) {
	c, err := Parse([]byte("attribute_min: 0\ndefault_attribute: 0\nattributes: [STR]"))
	require.NoError(t, err)

	assert.Equal(t, 0, c.AttributeMin)
	assert.Equal(t, 0, c.DefaultAttribute)
	assert.Equal(t, DefaultAttributeMax, c.AttributeMax)
}

func TestAttributeBounds(t *testing.T) {
	c := Default()

	lo, hi := c.AttributeBounds(NoOrigin, "STR")
	assert.Equal(t, [2]int{4, 10}, [2]int{lo, hi})

	lo, hi = c.AttributeBounds(4, "STR")
	assert.Equal(t, [2]int{4, 12}, [2]int{lo, hi})
	_, hi = c.AttributeBounds(4, "END")
	assert.Equal(t, 12, hi)
	_, hi = c.AttributeBounds(4, "AGI")
	assert.Equal(t, 10, hi)
	_, hi = c.AttributeBounds(1, "STR")
	assert.Equal(t, 10, hi)
}

func TestMissingDerivedAttributes(t *testing.T) {
	assert.Empty(t, Default().MissingDerivedAttributes())

	c, err := Parse([]byte(minimalCatalog))
	require.NoError(t, err)
	assert.Equal(t, []string{"END", "LCK"}, c.MissingDerivedAttributes())
}

func TestParseKeepsRequirementOrder(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	require.NoError(t, err)

	perk, ok := c.Perk(0)
	require.True(t, ok)
	require.Len(t, perk.Requirements, 2)

	rank2 := perk.Requirements[1]
	require.Len(t, rank2, 3)
	assert.Equal(t, "AGI", rank2[0].Name)
	assert.Equal(t, "ORIGIN", rank2[1].Name)
	assert.Equal(t, "LVL", rank2[2].Name)

	assert.False(t, rank2[0].Threshold.IsMembership())
	assert.Equal(t, []int{6}, rank2[0].Threshold.Values())
	assert.True(t, rank2[1].Threshold.IsMembership())
	assert.Equal(t, []int{0, 1}, rank2[1].Threshold.Values())
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "attributes: [STR"},
		{"no attributes", "skills: [Guns]"},
		{"reserved attribute", "attributes: [STR, LVL]"},
		{"duplicate attribute", "attributes: [STR, STR]"},
		{"skill rank too high", "max_skill_rank: 11\nattributes: [STR]"},
		{"default outside bounds", "default_attribute: 12\nattributes: [STR]"},
		{"zero skill rank", "max_skill_rank: 0\nattributes: [STR]"},
		{"negative attribute minimum", "attribute_min: -1\nattributes: [STR]"},
		{"origin override for unknown origin", "attributes: [STR]\norigins: [Human]\norigin_attribute_max: {3: {STR: 12}}"},
		{"origin override for no origin", "attributes: [STR]\norigins: [Human]\norigin_attribute_max: {-1: {STR: 12}}"},
		{"origin override for unknown attribute", "attributes: [STR]\norigins: [Human]\norigin_attribute_max: {0: {WIS: 12}}"},
		{"origin override below minimum", "attributes: [STR]\norigins: [Human]\norigin_attribute_max: {0: {STR: 2}}"},
		{"requirement count mismatch", `
attributes: [STR]
perks:
  - name: Brute
    max_rank: 2
    requirements:
      - {STR: 6}
`},
		{"unknown requirement", `
attributes: [STR]
perks:
  - name: Brute
    max_rank: 1
    requirements:
      - {WIS: 6}
`},
		{"empty membership set", `
attributes: [STR]
perks:
  - name: Brute
    max_rank: 1
    requirements:
      - {ORIGIN: []}
`},
		{"threshold not a number", `
attributes: [STR]
perks:
  - name: Brute
    max_rank: 1
    requirements:
      - {STR: high}
`},
		{"exclusive pair out of range", `
attributes: [STR]
perks:
  - name: Brute
    max_rank: 1
    requirements:
      - {}
exclusive_perks: [0, 4]
`},
		{"exclusive pair same perk", `
attributes: [STR]
perks:
  - name: Brute
    max_rank: 1
    requirements:
      - {}
exclusive_perks: [0, 0]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "expected ErrInvalidCatalog, got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/waste/catalog.yaml", []byte(minimalCatalog), 0644))

	c, err := Load(fs, "/etc/waste/catalog.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"Guns", "Repair"}, c.Skills)

	_, err = Load(fs, "/etc/waste/missing.yaml")
	assert.Error(t, err)
}

func TestLookups(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	require.NoError(t, err)

	assert.True(t, c.ValidOrigin(NoOrigin))
	assert.True(t, c.ValidOrigin(1))
	assert.False(t, c.ValidOrigin(2))
	assert.False(t, c.ValidOrigin(-2))

	name, ok := c.Skill(1)
	assert.True(t, ok)
	assert.Equal(t, "Repair", name)
	_, ok = c.Skill(2)
	assert.False(t, ok)

	partner, ok := c.ExclusivePartner(1)
	assert.True(t, ok)
	assert.Equal(t, PerkID(2), partner)
	partner, ok = c.ExclusivePartner(2)
	assert.True(t, ok)
	assert.Equal(t, PerkID(1), partner)
	_, ok = c.ExclusivePartner(0)
	assert.False(t, ok)

	assert.True(t, c.Resolvable("LVL"))
	assert.True(t, c.Resolvable("ORIGIN"))
	assert.True(t, c.Resolvable("AGI"))
	assert.False(t, c.Resolvable("LCK"))
}

func TestPropertyThreshold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lo := rapid.IntRange(-20, 20).Draw(t, "min")
		v := rapid.IntRange(-20, 20).Draw(t, "v")
		if AtLeast(lo).Satisfied(v) != (v >= lo) {
			t.Fatalf("AtLeast(%d).Satisfied(%d) is wrong", lo, v)
		}

		set := rapid.SliceOf(rapid.IntRange(-5, 5)).Draw(t, "set")
		member := false
		for _, s := range set {
			if s == v {
				member = true
			}
		}
		if OneOf(set...).Satisfied(v) != member {
			t.Fatalf("OneOf(%v).Satisfied(%d) is wrong", set, v)
		}
	})
}
