package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmcdole/waste/pkg/catalog"
	"github.com/mmcdole/waste/pkg/logging"
	"github.com/mmcdole/waste/pkg/player"
	"github.com/mmcdole/waste/pkg/playerdata"
)

// refresh reloads the working set, reporting unreadable files on stderr
func (a *app) refresh(cmd *cobra.Command) error {
	err := a.repository.Refresh()
	var listErr *playerdata.ListError
	if errors.As(err, &listErr) {
		for _, f := range listErr.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %v\n", f)
		}
	}
	return err
}

// load returns the working-set index and record stored at location
func (a *app) load(cmd *cobra.Command, location string) (int, *player.Record, error) {
	if err := a.refresh(cmd); err != nil {
		var listErr *playerdata.ListError
		if !errors.As(err, &listErr) {
			return -1, nil, err
		}
	}

	i, ok := a.repository.Find(location)
	if !ok {
		// Not in the working set: let the store say why
		if _, err := a.source.Load(location); err != nil {
			return -1, nil, err
		}
		return -1, nil, fmt.Errorf("%w: %s", playerdata.ErrNotFound, location)
	}
	r, err := a.repository.Get(i)
	return i, r, err
}

// save persists entry i and reports where it went
func (a *app) save(cmd *cobra.Command, i int) error {
	if err := a.repository.Save(i); err != nil {
		return err
	}
	r, err := a.repository.Get(i)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", r.Location)
	return nil
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every player in the players directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.refresh(cmd)
			var listErr *playerdata.ListError
			if err != nil && !errors.As(err, &listErr) {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LOCATION\tNAME\tLVL\tORIGIN")
			for _, r := range a.repository.Players() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Location, r.Name, r.Level, originName(a.cat, r.Origin))
			}
			if ferr := tw.Flush(); ferr != nil {
				return ferr
			}
			return err
		},
	}
}

func (a *app) newNewCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a player with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := player.ValidName(name); err != nil {
				return err
			}
			if err := a.refresh(cmd); err != nil {
				logging.App.Warn("Some player files could not be loaded", "error", err)
			}
			r, err := a.repository.Add()
			if err != nil {
				return err
			}
			if name == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", r.Location)
				return nil
			}
			if err := r.SetName(name); err != nil {
				return err
			}
			i, _ := a.repository.Find(r.Location)
			return a.save(cmd, i)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "player name")
	return cmd
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <location>",
		Short: "Print a player's sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			return writeSheet(cmd.OutOrStdout(), a.cat, a.evaluator, r)
		},
	}
}

func (a *app) newSetCmd() *cobra.Command {
	var (
		name        string
		level       int
		origin      string
		attrs       []string
		resistances []string
		hp          int
		luck        int
		carry       int
		defense     int
	)
	cmd := &cobra.Command{
		Use:   "set <location>",
		Short: "Edit a player's identity, attributes and stored stats",
		Example: `  waste set player_1.json --name "Cait" --level 3 --origin Goule
  waste set player_1.json --attr STR=7 --attr AGI=9
  waste set player_1.json --res radiation.2=3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				if err := r.SetName(name); err != nil {
					return err
				}
			}
			if flags.Changed("level") {
				if err := r.SetLevel(level); err != nil {
					return err
				}
			}
			if flags.Changed("origin") {
				id, err := parseOrigin(a.cat, origin)
				if err != nil {
					return err
				}
				if err := r.SetOrigin(id); err != nil {
					return err
				}
			}
			for _, kv := range attrs {
				key, value, err := splitAssignment(kv)
				if err != nil {
					return err
				}
				if err := r.SetAttribute(strings.ToUpper(key), value); err != nil {
					return err
				}
			}
			for _, kv := range resistances {
				if err := setResistance(r, kv); err != nil {
					return err
				}
			}
			if flags.Changed("hp") {
				r.SetHealthPoints(hp)
			}
			if flags.Changed("luck") {
				r.SetLuckPoints(luck)
			}
			if flags.Changed("carry") {
				r.SetCarryWeight(carry)
			}
			if flags.Changed("defense") {
				r.SetDefense(defense)
			}
			return a.save(cmd, i)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "player name")
	cmd.Flags().IntVarP(&level, "level", "l", 1, "player level")
	cmd.Flags().StringVarP(&origin, "origin", "o", "", "origin index or name, \"none\" to clear")
	cmd.Flags().StringArrayVarP(&attrs, "attr", "a", nil, "attribute assignment such as STR=7 (repeatable)")
	cmd.Flags().StringArrayVar(&resistances, "res", nil, "resistance assignment such as energy.0=2 (repeatable)")
	cmd.Flags().IntVar(&hp, "hp", 0, "stored health points")
	cmd.Flags().IntVar(&luck, "luck", 0, "stored luck points")
	cmd.Flags().IntVar(&carry, "carry", 0, "stored carry weight")
	cmd.Flags().IntVar(&defense, "defense", 0, "stored defense")
	return cmd
}

func (a *app) newRecomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <location>",
		Short: "Refresh health, luck, carry weight and defense from attributes and level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			if err := r.RecomputeDerived(); err != nil {
				return err
			}
			return a.save(cmd, i)
		},
	}
}

func (a *app) newSkillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Add, rank and tag skills",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <location> <skill>",
		Short: "Add a skill at rank 1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := parseSkill(a.cat, args[1])
			if err != nil {
				return err
			}
			if err := r.AddSkill(id); err != nil {
				return err
			}
			return a.save(cmd, i)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rank <location> <skill> <rank>",
		Short: "Set a skill's rank; 0 removes it, ranks above the cap are clamped",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := parseSkill(a.cat, args[1])
			if err != nil {
				return err
			}
			rank, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid rank %q: %w", args[2], err)
			}
			if err := r.SetSkillRank(id, rank); err != nil {
				return err
			}
			return a.save(cmd, i)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tag <location> <skill>",
		Short: "Toggle a skill's tagged flag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := parseSkill(a.cat, args[1])
			if err != nil {
				return err
			}
			if err := r.ToggleTag(id); err != nil {
				return err
			}
			return a.save(cmd, i)
		},
	})

	return cmd
}

func (a *app) newPerkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perk",
		Short: "Unlock, remove and list perks",
	}

	var force bool
	add := &cobra.Command{
		Use:   "add <location> <perk>",
		Short: "Take the next rank of a perk if its requirements hold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := parsePerk(a.cat, args[1])
			if err != nil {
				return err
			}
			if force {
				err = r.AddPerkRank(id)
			} else {
				err = a.evaluator.Unlock(r, id)
			}
			if err != nil {
				return err
			}
			return a.save(cmd, i)
		},
	}
	add.Flags().BoolVarP(&force, "force", "f", false, "skip the requirement check (rank and exclusivity still apply)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <location> <perk>",
		Short: "Drop one rank of a perk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := parsePerk(a.cat, args[1])
			if err != nil {
				return err
			}
			if err := r.RemovePerkRank(id); err != nil {
				return err
			}
			return a.save(cmd, i)
		},
	})

	var all bool
	available := &cobra.Command{
		Use:   "available <location>",
		Short: "List the perks whose next rank the player can take",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			if all {
				return writeAllPerks(cmd.OutOrStdout(), a.cat, a.evaluator, r)
			}
			return writeAvailablePerks(cmd.OutOrStdout(), a.cat, a.evaluator, r)
		},
	}
	available.Flags().BoolVar(&all, "all", false, "also list blocked perks and what they are missing")
	cmd.AddCommand(available)

	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <location>",
		Short: "Permanently delete a player and its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, r, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			if err := a.repository.Delete(r, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the attributes, origins, skills and perks in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCatalog(cmd.OutOrStdout(), a.cat)
		},
	}
}

// parseSkill accepts a skill index or its name, ignoring case
func parseSkill(cat *catalog.Catalog, arg string) (catalog.SkillID, error) {
	i, err := lookup(cat.Skills, arg)
	if err != nil {
		return 0, fmt.Errorf("skill %w", err)
	}
	return catalog.SkillID(i), nil
}

// parsePerk accepts a perk index or its name, ignoring case
func parsePerk(cat *catalog.Catalog, arg string) (catalog.PerkID, error) {
	names := make([]string, len(cat.Perks))
	for i, p := range cat.Perks {
		names[i] = p.Name
	}
	i, err := lookup(names, arg)
	if err != nil {
		return 0, fmt.Errorf("perk %w", err)
	}
	return catalog.PerkID(i), nil
}

// parseOrigin accepts an origin index, its name, or "none"/-1 for no origin
func parseOrigin(cat *catalog.Catalog, arg string) (catalog.OriginID, error) {
	if strings.EqualFold(arg, "none") || arg == strconv.Itoa(int(catalog.NoOrigin)) {
		return catalog.NoOrigin, nil
	}
	i, err := lookup(cat.Origins, arg)
	if err != nil {
		return 0, fmt.Errorf("origin %w", err)
	}
	return catalog.OriginID(i), nil
}

func lookup(names []string, arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n >= len(names) {
			return 0, fmt.Errorf("index %d out of range [0, %d)", n, len(names))
		}
		return n, nil
	}
	for i, name := range names {
		if strings.EqualFold(name, arg) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%q not found", arg)
}

// splitAssignment parses KEY=VALUE with an integer value
func splitAssignment(kv string) (string, int, error) {
	key, raw, ok := strings.Cut(kv, "=")
	if !ok || key == "" {
		return "", 0, fmt.Errorf("expected KEY=VALUE, got %q", kv)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid value in %q: %w", kv, err)
	}
	return key, value, nil
}

// setResistance applies KIND.LOCATION=VALUE, e.g. poison.3=1
func setResistance(r *player.Record, kv string) error {
	key, value, err := splitAssignment(kv)
	if err != nil {
		return err
	}
	kind, loc, ok := strings.Cut(key, ".")
	if !ok {
		return fmt.Errorf("expected KIND.LOCATION=VALUE, got %q", kv)
	}
	idx, err := strconv.Atoi(loc)
	if err != nil || idx < 0 || idx >= player.BodyLocations {
		return fmt.Errorf("body location in %q must be 0-%d", kv, player.BodyLocations-1)
	}

	var row *[player.BodyLocations]int
	switch strings.ToLower(kind) {
	case "physical":
		row = &r.Resistances.Physical
	case "energy":
		row = &r.Resistances.Energy
	case "radiation":
		row = &r.Resistances.Radiation
	case "poison":
		row = &r.Resistances.Poison
	default:
		return fmt.Errorf("unknown resistance %q (physical, energy, radiation, poison)", kind)
	}
	row[idx] = value
	return nil
}
