// Package player models a character sheet and keeps it consistent with the
// rule catalog on every change.
package player

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mmcdole/waste/pkg/catalog"
)

// DefaultName is the name given to a freshly created player
const DefaultName = "Nouveau Joueur"

// BodyLocations is the number of hit locations a resistance row covers:
// head, torso, left arm, right arm, left leg, right leg.
const BodyLocations = 6

// Skill is a held skill. A skill with rank 0 is not held.
type Skill struct {
	Rank   int
	Tagged bool
}

// Resistances holds one damage resistance row per damage type
type Resistances struct {
	Physical  [BodyLocations]int
	Energy    [BodyLocations]int
	Radiation [BodyLocations]int
	Poison    [BodyLocations]int
}

// Record is one player character.
//
// Derived stats (HealthPoints through Resistances) are stored values; they
// only change through their setters or RecomputeDerived.
type Record struct {
	// Location is the backing file name; empty until first saved
	Location string

	Name       string
	Level      int
	Origin     catalog.OriginID
	Attributes map[string]int
	Skills     map[catalog.SkillID]Skill
	Perks      map[catalog.PerkID]int

	HealthPoints int
	LuckPoints   int
	CarryWeight  int
	Defense      int
	Resistances  Resistances

	cat *catalog.Catalog
}

// New returns a level 1 player with no origin, every attribute at the
// catalog default, no skills and no perks.
func New(cat *catalog.Catalog) *Record {
	r := &Record{
		Name:       DefaultName,
		Level:      1,
		Origin:     catalog.NoOrigin,
		Attributes: make(map[string]int, len(cat.Attributes)),
		Skills:     make(map[catalog.SkillID]Skill),
		Perks:      make(map[catalog.PerkID]int),
		cat:        cat,
	}
	for _, name := range cat.Attributes {
		r.Attributes[name] = cat.DefaultAttribute
	}
	// derived stats stay zero on a catalog without the formula attributes
	_ = r.RecomputeDerived()
	return r
}

// Catalog returns the catalog the record is checked against
func (r *Record) Catalog() *catalog.Catalog {
	return r.cat
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	c := *r
	c.Attributes = maps.Clone(r.Attributes)
	c.Skills = maps.Clone(r.Skills)
	c.Perks = maps.Clone(r.Perks)
	return &c
}

// Value resolves a requirement name against the record: an attribute,
// catalog.LevelKey or catalog.OriginKey.
func (r *Record) Value(name string) (int, bool) {
	switch name {
	case catalog.LevelKey:
		return r.Level, true
	case catalog.OriginKey:
		return int(r.Origin), true
	}
	v, ok := r.Attributes[name]
	return v, ok
}

// ValidName reports whether name can be stored: it must be valid UTF-8 to
// survive the JSON round trip unchanged
func ValidName(name string) error {
	if !utf8.ValidString(name) {
		return invalid("NAME", "name %q is not valid UTF-8", name)
	}
	return nil
}

// SetName changes the display name
func (r *Record) SetName(name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	r.Name = name
	return nil
}

// SetLevel changes the level; levels start at 1
func (r *Record) SetLevel(level int) error {
	if level < 1 {
		return invalid("LVL", "level must be at least 1, got %d", level)
	}
	r.Level = level
	return nil
}

// SetOrigin selects an origin, or clears it with catalog.NoOrigin
func (r *Record) SetOrigin(id catalog.OriginID) error {
	if !r.cat.ValidOrigin(id) {
		return invalid("ORIGIN", "unknown origin %d", id)
	}
	r.Origin = id
	return nil
}

// SetAttribute changes one attribute within the catalog bounds for the
// record's current origin. Values already stored are not re-checked when the
// origin changes.
func (r *Record) SetAttribute(name string, value int) error {
	if !r.cat.HasAttribute(name) {
		return invalid("SPECIAL", "unknown attribute %q", name)
	}
	lo, hi := r.cat.AttributeBounds(r.Origin, name)
	if value < lo || value > hi {
		return invalid("SPECIAL", "%s must be between %d and %d, got %d", name, lo, hi, value)
	}
	r.Attributes[name] = value
	return nil
}

// AddSkill adds a skill at rank 1, untagged. Adding a held skill is a no-op.
func (r *Record) AddSkill(id catalog.SkillID) error {
	if _, ok := r.cat.Skill(id); !ok {
		return invalid("SKILLS", "unknown skill %d", id)
	}
	if _, held := r.Skills[id]; held {
		return nil
	}
	r.Skills[id] = Skill{Rank: 1}
	return nil
}

// SetSkillRank sets a skill rank. Ranks of 0 or less remove the skill;
// ranks above the catalog maximum are clamped.
func (r *Record) SetSkillRank(id catalog.SkillID, rank int) error {
	if _, ok := r.cat.Skill(id); !ok {
		return invalid("SKILLS", "unknown skill %d", id)
	}
	if rank <= 0 {
		delete(r.Skills, id)
		return nil
	}
	rank = min(rank, r.cat.MaxSkillRank)
	s := r.Skills[id]
	s.Rank = rank
	r.Skills[id] = s
	return nil
}

// ToggleTag flips the tagged flag of a held skill
func (r *Record) ToggleTag(id catalog.SkillID) error {
	s, held := r.Skills[id]
	if !held {
		return invalid("SKILLS", "skill %d is not held", id)
	}
	s.Tagged = !s.Tagged
	r.Skills[id] = s
	return nil
}

// PerkRank returns the held rank of a perk, 0 when absent
func (r *Record) PerkRank(id catalog.PerkID) int {
	return r.Perks[id]
}

// ExclusiveConflict reports whether holding id would break the exclusive
// perk pair, i.e. the other member of the pair is already held.
func (r *Record) ExclusiveConflict(id catalog.PerkID) bool {
	partner, ok := r.cat.ExclusivePartner(id)
	if !ok {
		return false
	}
	return r.Perks[partner] > 0
}

// AddPerkRank raises a perk by one rank
func (r *Record) AddPerkRank(id catalog.PerkID) error {
	return r.SetPerkRank(id, r.Perks[id]+1)
}

// RemovePerkRank lowers a held perk by one rank, removing it at 0
func (r *Record) RemovePerkRank(id catalog.PerkID) error {
	rank, held := r.Perks[id]
	if !held {
		return invalid("PERKS", "perk %d is not held", id)
	}
	return r.SetPerkRank(id, rank-1)
}

// SetPerkRank sets a perk rank. A rank of 0 removes the perk.
func (r *Record) SetPerkRank(id catalog.PerkID, rank int) error {
	perk, ok := r.cat.Perk(id)
	if !ok {
		return invalid("PERKS", "unknown perk %d", id)
	}
	switch {
	case rank < 0:
		return invalid("PERKS", "%s: negative rank %d", perk.Name, rank)
	case rank == 0:
		delete(r.Perks, id)
		return nil
	case rank > perk.MaxRank:
		return invalid("PERKS", "%s: rank %d exceeds maximum %d", perk.Name, rank, perk.MaxRank)
	case r.ExclusiveConflict(id):
		return invalid("PERKS", "%s cannot be combined with the perk already held", perk.Name)
	}
	r.Perks[id] = rank
	return nil
}

// SetHealthPoints overrides the stored health points
func (r *Record) SetHealthPoints(v int) { r.HealthPoints = v }

// SetLuckPoints overrides the stored luck points
func (r *Record) SetLuckPoints(v int) { r.LuckPoints = v }

// SetCarryWeight overrides the stored carry weight
func (r *Record) SetCarryWeight(v int) { r.CarryWeight = v }

// SetDefense overrides the stored defense
func (r *Record) SetDefense(v int) { r.Defense = v }

// RecomputeDerived refreshes the stored derived stats from attributes and
// level using the Fallout 2d20 formulas. Resistances are left as set. It
// fails without touching the record when the catalog lacks one of
// catalog.DerivedStatAttributes.
func (r *Record) RecomputeDerived() error {
	if missing := r.cat.MissingDerivedAttributes(); len(missing) > 0 {
		return invalid("SPECIAL", "catalog has no %s attribute to derive stats from", strings.Join(missing, ", "))
	}
	r.HealthPoints = r.Attributes["END"] + r.Attributes["LCK"] + r.Level - 1
	r.LuckPoints = r.Attributes["LCK"]
	r.CarryWeight = 150 + 10*r.Attributes["STR"]
	r.Defense = 1
	if r.Attributes["AGI"] >= 9 {
		r.Defense = 2
	}
	return nil
}

// SortedSkills returns held skill ids in catalog order
func (r *Record) SortedSkills() []catalog.SkillID {
	return slices.Sorted(maps.Keys(r.Skills))
}

// SortedPerks returns held perk ids in catalog order
func (r *Record) SortedPerks() []catalog.PerkID {
	return slices.Sorted(maps.Keys(r.Perks))
}

// Validate checks every invariant of the record against its catalog
func (r *Record) Validate() error {
	if r.cat == nil {
		return invalid("record", "no catalog attached")
	}
	if err := ValidName(r.Name); err != nil {
		return err
	}
	if r.Level < 1 {
		return invalid("LVL", "level must be at least 1, got %d", r.Level)
	}
	if !r.cat.ValidOrigin(r.Origin) {
		return invalid("ORIGIN", "unknown origin %d", r.Origin)
	}

	if len(r.Attributes) != len(r.cat.Attributes) {
		return invalid("SPECIAL", "expected %d attributes, got %d", len(r.cat.Attributes), len(r.Attributes))
	}
	// values are range checked by SetAttribute only
	for _, name := range r.cat.Attributes {
		if _, ok := r.Attributes[name]; !ok {
			return invalid("SPECIAL", "missing attribute %q", name)
		}
	}

	for id, s := range r.Skills {
		if _, ok := r.cat.Skill(id); !ok {
			return invalid("SKILLS", "unknown skill %d", id)
		}
		if s.Rank < 1 || s.Rank > r.cat.MaxSkillRank {
			return invalid("SKILLS", "skill %d rank %d outside [1, %d]", id, s.Rank, r.cat.MaxSkillRank)
		}
	}

	for id, rank := range r.Perks {
		perk, ok := r.cat.Perk(id)
		if !ok {
			return invalid("PERKS", "unknown perk %d", id)
		}
		if rank < 1 || rank > perk.MaxRank {
			return invalid("PERKS", "%s rank %d outside [1, %d]", perk.Name, rank, perk.MaxRank)
		}
		if r.ExclusiveConflict(id) {
			return invalid("PERKS", "%s held together with its exclusive counterpart", perk.Name)
		}
	}

	return nil
}
