package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mmcdole/waste/pkg/catalog"
	"github.com/mmcdole/waste/pkg/eligibility"
	"github.com/mmcdole/waste/pkg/player"
)

var resistanceRows = []struct {
	label string
	row   func(*player.Resistances) [player.BodyLocations]int
}{
	{"physical", func(r *player.Resistances) [player.BodyLocations]int { return r.Physical }},
	{"energy", func(r *player.Resistances) [player.BodyLocations]int { return r.Energy }},
	{"radiation", func(r *player.Resistances) [player.BodyLocations]int { return r.Radiation }},
	{"poison", func(r *player.Resistances) [player.BodyLocations]int { return r.Poison }},
}

func originName(cat *catalog.Catalog, id catalog.OriginID) string {
	if name, ok := cat.Origin(id); ok {
		return name
	}
	return "-"
}

// formatRequirements renders requirements as "STR >= 5, ORIGIN one of [1]"
func formatRequirements(reqs catalog.Requirements) string {
	if len(reqs) == 0 {
		return "none"
	}
	parts := make([]string, len(reqs))
	for i, req := range reqs {
		parts[i] = req.Name + " " + req.Threshold.String()
	}
	return strings.Join(parts, ", ")
}

// writeSheet prints the full character sheet of r
func writeSheet(w io.Writer, cat *catalog.Catalog, ev *eligibility.Evaluator, r *player.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Name:\t%s\n", r.Name)
	fmt.Fprintf(tw, "Location:\t%s\n", r.Location)
	fmt.Fprintf(tw, "Level:\t%d\n", r.Level)
	fmt.Fprintf(tw, "Origin:\t%s\n", originName(cat, r.Origin))

	fmt.Fprintln(tw, "\nSPECIAL")
	for _, name := range cat.Attributes {
		fmt.Fprintf(tw, "  %s\t%d\n", name, r.Attributes[name])
	}

	fmt.Fprintln(tw, "\nStats")
	fmt.Fprintf(tw, "  Health points\t%d\n", r.HealthPoints)
	fmt.Fprintf(tw, "  Luck points\t%d\n", r.LuckPoints)
	fmt.Fprintf(tw, "  Carry weight\t%d\n", r.CarryWeight)
	fmt.Fprintf(tw, "  Defense\t%d\n", r.Defense)
	for _, res := range resistanceRows {
		row := res.row(&r.Resistances)
		fmt.Fprintf(tw, "  %s res.\t%s\n", res.label, strings.Trim(fmt.Sprint(row), "[]"))
	}

	fmt.Fprintln(tw, "\nSkills")
	for _, id := range r.SortedSkills() {
		s := r.Skills[id]
		name, _ := cat.Skill(id)
		tag := ""
		if s.Tagged {
			tag = "tagged"
		}
		fmt.Fprintf(tw, "  [%d] %s\t%d/%d\t%s\n", id, name, s.Rank, cat.MaxSkillRank, tag)
	}

	fmt.Fprintln(tw, "\nPerks")
	for _, id := range r.SortedPerks() {
		perk, _ := cat.Perk(id)
		next := ""
		if ev.PerkUnlockable(r, id, r.Perks[id]) {
			next = "next rank available"
		}
		fmt.Fprintf(tw, "  [%d] %s\t%d/%d\t%s\n", id, perk.Name, r.Perks[id], perk.MaxRank, next)
	}

	return tw.Flush()
}

// writeAvailablePerks prints the perks whose next rank r can take
func writeAvailablePerks(w io.Writer, cat *catalog.Catalog, ev *eligibility.Evaluator, r *player.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, id := range ev.AvailablePerks(r) {
		perk, _ := cat.Perk(id)
		fmt.Fprintf(tw, "[%d] %s\trank %d/%d\t%s\n", id, perk.Name, r.PerkRank(id)+1, perk.MaxRank, perk.Description)
	}
	return tw.Flush()
}

// writeAllPerks prints every perk with its status for r
func writeAllPerks(w io.Writer, cat *catalog.Catalog, ev *eligibility.Evaluator, r *player.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := range cat.Perks {
		id := catalog.PerkID(i)
		perk := &cat.Perks[i]
		rank := r.PerkRank(id)

		var status string
		switch {
		case rank >= perk.MaxRank:
			status = "max rank"
		case r.ExclusiveConflict(id):
			partner, _ := cat.ExclusivePartner(id)
			status = "excluded by " + cat.Perks[partner].Name
		case ev.PerkUnlockable(r, id, rank):
			status = "available"
		default:
			status = "missing " + formatRequirements(ev.Unmet(r, perk.Requirements[rank]))
		}
		fmt.Fprintf(tw, "[%d] %s\t%d/%d\t%s\n", id, perk.Name, rank, perk.MaxRank, status)
	}
	return tw.Flush()
}

// writeCatalog prints the rule data in use
func writeCatalog(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Attributes:\t%s (%d-%d, default %d)\n",
		strings.Join(cat.Attributes, " "), cat.AttributeMin, cat.AttributeMax, cat.DefaultAttribute)
	fmt.Fprintf(tw, "Max skill rank:\t%d\n", cat.MaxSkillRank)

	fmt.Fprintln(tw, "\nOrigins")
	for i, name := range cat.Origins {
		var limits []string
		for _, attr := range cat.Attributes {
			if _, hi := cat.AttributeBounds(catalog.OriginID(i), attr); hi != cat.AttributeMax {
				limits = append(limits, fmt.Sprintf("%s max %d", attr, hi))
			}
		}
		fmt.Fprintf(tw, "  [%d]\t%s\t%s\n", i, name, strings.Join(limits, ", "))
	}

	fmt.Fprintln(tw, "\nSkills")
	for i, name := range cat.Skills {
		fmt.Fprintf(tw, "  [%d]\t%s\n", i, name)
	}

	fmt.Fprintln(tw, "\nPerks")
	for i, perk := range cat.Perks {
		fmt.Fprintf(tw, "  [%d]\t%s\tmax %d\n", i, perk.Name, perk.MaxRank)
		for rank, reqs := range perk.Requirements {
			fmt.Fprintf(tw, "\t  rank %d\t%s\n", rank+1, formatRequirements(reqs))
		}
	}
	if len(cat.ExclusivePerks) == 2 {
		fmt.Fprintf(tw, "\nExclusive:\t%s / %s\n", cat.Perks[cat.ExclusivePerks[0]].Name, cat.Perks[cat.ExclusivePerks[1]].Name)
	}

	return tw.Flush()
}
