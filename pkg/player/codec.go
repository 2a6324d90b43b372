package player

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/mmcdole/waste/pkg/catalog"
)

// JSON keys of a persisted record
const (
	NameField         = "NAME"
	LevelField        = "LVL"
	OriginField       = "ORIGIN"
	SpecialField      = "SPECIAL"
	SkillsField       = "SKILLS"
	PerksField        = "PERKS"
	HealthPointField  = "HEALTH_POINT"
	LuckyPointField   = "LUCKY_POINT"
	CarryWeightField  = "CARRY_WEIGHT"
	DefenseField      = "DEFENSE"
	PhysicalResField  = "PHYSICAL_RES"
	EnergyResField    = "ENERGY_RES"
	RadiationResField = "RADIATION_RES"
	PoisonResField    = "POISON_RES"
)

// requiredFields must be present in every persisted record. PERKS and the
// derived stats came later and default when absent.
var requiredFields = []string{NameField, LevelField, OriginField, SpecialField, SkillsField}

type wireRecord struct {
	Name         string             `json:"NAME"`
	Level        int                `json:"LVL"`
	Origin       int                `json:"ORIGIN"`
	Special      map[string]int     `json:"SPECIAL"`
	Skills       map[string][2]int  `json:"SKILLS"`
	Perks        map[string]int     `json:"PERKS"`
	HealthPoint  int                `json:"HEALTH_POINT"`
	LuckyPoint   int                `json:"LUCKY_POINT"`
	CarryWeight  int                `json:"CARRY_WEIGHT"`
	Defense      int                `json:"DEFENSE"`
	PhysicalRes  [BodyLocations]int `json:"PHYSICAL_RES"`
	EnergyRes    [BodyLocations]int `json:"ENERGY_RES"`
	RadiationRes [BodyLocations]int `json:"RADIATION_RES"`
	PoisonRes    [BodyLocations]int `json:"POISON_RES"`
}

// Marshal encodes a record in the players file format. The tagged flag of
// a skill is written as 0 or 1.
func Marshal(r *Record) ([]byte, error) {
	w := wireRecord{
		Name:         r.Name,
		Level:        r.Level,
		Origin:       int(r.Origin),
		Special:      make(map[string]int, len(r.Attributes)),
		Skills:       make(map[string][2]int, len(r.Skills)),
		Perks:        make(map[string]int, len(r.Perks)),
		HealthPoint:  r.HealthPoints,
		LuckyPoint:   r.LuckPoints,
		CarryWeight:  r.CarryWeight,
		Defense:      r.Defense,
		PhysicalRes:  r.Resistances.Physical,
		EnergyRes:    r.Resistances.Energy,
		RadiationRes: r.Resistances.Radiation,
		PoisonRes:    r.Resistances.Poison,
	}
	for name, v := range r.Attributes {
		w.Special[name] = v
	}
	for id, s := range r.Skills {
		tagged := 0
		if s.Tagged {
			tagged = 1
		}
		w.Skills[strconv.Itoa(int(id))] = [2]int{s.Rank, tagged}
	}
	for id, rank := range r.Perks {
		w.Perks[strconv.Itoa(int(id))] = rank
	}

	data, err := json.MarshalIndent(w, "", "        ")
	if err != nil {
		return nil, fmt.Errorf("encoding player record: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a persisted record and checks it against cat. Any
// missing required field, mistyped field or invariant violation yields a
// *CorruptRecordError; nothing is silently defaulted except the optional
// fields.
func Unmarshal(cat *catalog.Catalog, data []byte) (*Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, corrupt(err, "not a JSON object")
	}
	if fields == nil {
		return nil, corrupt(nil, "not a JSON object")
	}
	for _, key := range requiredFields {
		if _, ok := fields[key]; !ok {
			return nil, corrupt(nil, "missing field %s", key)
		}
	}

	r := &Record{
		Attributes: make(map[string]int),
		Skills:     make(map[catalog.SkillID]Skill),
		Perks:      make(map[catalog.PerkID]int),
		cat:        cat,
	}

	var origin int
	if err := decodeField(fields, NameField, &r.Name); err != nil {
		return nil, err
	}
	if err := decodeField(fields, LevelField, &r.Level); err != nil {
		return nil, err
	}
	if err := decodeField(fields, OriginField, &origin); err != nil {
		return nil, err
	}
	r.Origin = catalog.OriginID(origin)
	if err := decodeField(fields, SpecialField, &r.Attributes); err != nil {
		return nil, err
	}

	var skills map[string][]json.RawMessage
	if err := decodeField(fields, SkillsField, &skills); err != nil {
		return nil, err
	}
	for key, pair := range skills {
		id, err := decodeID(SkillsField, key)
		if err != nil {
			return nil, err
		}
		s, err := decodeSkill(key, pair)
		if err != nil {
			return nil, err
		}
		r.Skills[catalog.SkillID(id)] = s
	}

	if _, ok := fields[PerksField]; ok {
		var perks map[string]int
		if err := decodeField(fields, PerksField, &perks); err != nil {
			return nil, err
		}
		for key, rank := range perks {
			id, err := decodeID(PerksField, key)
			if err != nil {
				return nil, err
			}
			r.Perks[catalog.PerkID(id)] = rank
		}
	}

	optional := []struct {
		key string
		dst interface{}
	}{
		{HealthPointField, &r.HealthPoints},
		{LuckyPointField, &r.LuckPoints},
		{CarryWeightField, &r.CarryWeight},
		{DefenseField, &r.Defense},
		{PhysicalResField, &r.Resistances.Physical},
		{EnergyResField, &r.Resistances.Energy},
		{RadiationResField, &r.Resistances.Radiation},
		{PoisonResField, &r.Resistances.Poison},
	}
	for _, f := range optional {
		if _, ok := fields[f.key]; !ok {
			continue
		}
		if err := decodeField(fields, f.key, f.dst); err != nil {
			return nil, err
		}
	}

	if err := r.Validate(); err != nil {
		return nil, corrupt(err, "record does not match the catalog")
	}
	return r, nil
}

// decodeField decodes fields[key] into dst, rejecting null
func decodeField(fields map[string]json.RawMessage, key string, dst interface{}) error {
	raw := fields[key]
	if isNull(raw) {
		return corrupt(nil, "field %s is null", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return corrupt(err, "field %s has the wrong type", key)
	}
	return nil
}

func decodeID(field, key string) (int, error) {
	id, err := strconv.Atoi(key)
	if err != nil || id < 0 {
		return 0, corrupt(err, "%s key %q is not an index", field, key)
	}
	// "01" and "1" would otherwise land on the same entry
	if strconv.Itoa(id) != key {
		return 0, corrupt(nil, "%s key %q is not in canonical form", field, key)
	}
	return id, nil
}

// decodeSkill accepts [rank, tagged] where tagged is a boolean or 0/1
func decodeSkill(key string, pair []json.RawMessage) (Skill, error) {
	if len(pair) != 2 {
		return Skill{}, corrupt(nil, "skill %s must be [rank, tagged]", key)
	}
	var s Skill
	if isNull(pair[0]) {
		return Skill{}, corrupt(nil, "skill %s rank is null", key)
	}
	if err := json.Unmarshal(pair[0], &s.Rank); err != nil {
		return Skill{}, corrupt(err, "skill %s rank has the wrong type", key)
	}

	if err := json.Unmarshal(pair[1], &s.Tagged); err == nil && !isNull(pair[1]) {
		return s, nil
	}
	var flag int
	if err := json.Unmarshal(pair[1], &flag); err != nil || isNull(pair[1]) || (flag != 0 && flag != 1) {
		return Skill{}, corrupt(err, "skill %s tagged flag must be a boolean or 0/1", key)
	}
	s.Tagged = flag == 1
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
