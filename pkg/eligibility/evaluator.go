// Package eligibility decides which perk ranks a player may take.
package eligibility

import (
	"errors"
	"fmt"

	"github.com/mmcdole/waste/pkg/catalog"
	"github.com/mmcdole/waste/pkg/player"
)

// ErrNotEligible is returned by Unlock when the player does not qualify for
// the next rank of a perk
var ErrNotEligible = errors.New("player does not qualify for perk")

// Evaluator checks players against a catalog's perk requirements.
// It holds no state besides the catalog and is safe to share.
type Evaluator struct {
	cat *catalog.Catalog
}

// New creates an Evaluator for cat
func New(cat *catalog.Catalog) *Evaluator {
	return &Evaluator{cat: cat}
}

// Evaluate reports whether every requirement holds for r. An integer
// threshold is a minimum, a list threshold is a set of allowed values.
// Requirements naming something the record does not have never hold.
func (e *Evaluator) Evaluate(r *player.Record, reqs catalog.Requirements) bool {
	ok := true
	for _, req := range reqs {
		if !satisfied(r, req) {
			ok = false
		}
	}
	return ok
}

func satisfied(r *player.Record, req catalog.Requirement) bool {
	v, found := r.Value(req.Name)
	return found && req.Threshold.Satisfied(v)
}

// Unmet returns the requirements of reqs that r fails, in order
func (e *Evaluator) Unmet(r *player.Record, reqs catalog.Requirements) catalog.Requirements {
	var unmet catalog.Requirements
	for _, req := range reqs {
		if !satisfied(r, req) {
			unmet = append(unmet, req)
		}
	}
	return unmet
}

// PerkUnlockable reports whether rank currentRank+1 of the perk can be
// taken: the perk is below its maximum rank, the other member of the
// exclusive pair is not held, and the requirements for that rank hold.
func (e *Evaluator) PerkUnlockable(r *player.Record, id catalog.PerkID, currentRank int) bool {
	perk, ok := e.cat.Perk(id)
	if !ok {
		return false
	}
	if currentRank < 0 || currentRank >= perk.MaxRank {
		return false
	}
	if r.ExclusiveConflict(id) {
		return false
	}
	return e.Evaluate(r, perk.Requirements[currentRank])
}

// AvailablePerks lists, in catalog order, every perk whose next rank r can
// take.
func (e *Evaluator) AvailablePerks(r *player.Record) []catalog.PerkID {
	var ids []catalog.PerkID
	for i := range e.cat.Perks {
		id := catalog.PerkID(i)
		if e.PerkUnlockable(r, id, r.PerkRank(id)) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Unlock raises the perk by one rank if r qualifies for it
func (e *Evaluator) Unlock(r *player.Record, id catalog.PerkID) error {
	perk, ok := e.cat.Perk(id)
	if !ok {
		return fmt.Errorf("%w: unknown perk %d", ErrNotEligible, id)
	}
	rank := r.PerkRank(id)
	if !e.PerkUnlockable(r, id, rank) {
		return fmt.Errorf("%w: %s rank %d", ErrNotEligible, perk.Name, rank+1)
	}
	return r.AddPerkRank(id)
}
