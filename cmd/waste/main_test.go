package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/waste/pkg/catalog"
	"github.com/mmcdole/waste/pkg/eligibility"
	"github.com/mmcdole/waste/pkg/player"
	"github.com/mmcdole/waste/pkg/playerdata"
)

const testPlayersDir = "/players"

// run executes the waste command line against fs and returns its output
func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(fs)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--players-dir", testPlayersDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run for commands expected to succeed
func mustRun(t *testing.T, fs afero.Fs, args ...string) string {
	t.Helper()
	out, err := run(t, fs, args...)
	require.NoError(t, err, "waste %v: %s", args, out)
	return out
}

func loadPlayer(t *testing.T, fs afero.Fs, location string) *player.Record {
	t.Helper()
	r, err := playerdata.NewFileSource(fs, testPlayersDir, catalog.Default()).Load(location)
	require.NoError(t, err)
	return r
}

func TestVersion(t *testing.T) {
	out := mustRun(t, afero.NewMemMapFs(), "--version")
	assert.Equal(t, "waste dev\n", out)
}

func TestNewAndList(t *testing.T) {
	fs := afero.NewMemMapFs()

	assert.Equal(t, "saved player_1.json\n", mustRun(t, fs, "new", "--name", "Cait"))
	assert.Equal(t, "saved player_2.json\n", mustRun(t, fs, "new"))

	out := mustRun(t, fs, "list")
	assert.Contains(t, out, "player_1.json")
	assert.Contains(t, out, "Cait")
	assert.Contains(t, out, "player_2.json")
	assert.Contains(t, out, player.DefaultName)

	r := loadPlayer(t, fs, "player_1.json")
	assert.Equal(t, "Cait", r.Name)
	assert.Equal(t, 1, r.Level)
	assert.Equal(t, catalog.NoOrigin, r.Origin)
}

func TestSetAndShow(t *testing.T) {
	fs := afero.NewMemMapFs()
	mustRun(t, fs, "new")

	mustRun(t, fs, "set", "player_1.json",
		"--name", "Nick",
		"--level", "3",
		"--origin", "goule",
		"--attr", "STR=7",
		"--attr", "agi=9",
		"--res", "radiation.2=3",
		"--hp", "20")

	r := loadPlayer(t, fs, "player_1.json")
	assert.Equal(t, "Nick", r.Name)
	assert.Equal(t, 3, r.Level)
	assert.Equal(t, catalog.OriginID(1), r.Origin)
	assert.Equal(t, 7, r.Attributes["STR"])
	assert.Equal(t, 9, r.Attributes["AGI"])
	assert.Equal(t, 3, r.Resistances.Radiation[2])
	assert.Equal(t, 20, r.HealthPoints)

	mustRun(t, fs, "recompute", "player_1.json")
	r = loadPlayer(t, fs, "player_1.json")
	assert.Equal(t, 5+5+3-1, r.HealthPoints)
	assert.Equal(t, 150+70, r.CarryWeight)
	assert.Equal(t, 2, r.Defense)
	assert.Equal(t, 3, r.Resistances.Radiation[2])

	out := mustRun(t, fs, "show", "player_1.json")
	assert.Contains(t, out, "Nick")
	assert.Contains(t, out, "Goule")
	assert.Contains(t, out, "0 0 3 0 0 0")

	t.Run("rejected edits are not saved", func(t *testing.T) {
		_, err := run(t, fs, "set", "player_1.json", "--name", "Nobody", "--attr", "STR=11")
		assert.ErrorIs(t, err, player.ErrValidation)
		assert.Equal(t, "Nick", loadPlayer(t, fs, "player_1.json").Name)

		_, err = run(t, fs, "set", "player_1.json", "--level", "0")
		assert.ErrorIs(t, err, player.ErrValidation)

		_, err = run(t, fs, "set", "player_1.json", "--origin", "Enclave")
		assert.Error(t, err)
	})

	t.Run("origin maximum", func(t *testing.T) {
		mustRun(t, fs, "set", "player_1.json", "--origin", "Super mutant", "--attr", "STR=12", "--attr", "END=11")
		r := loadPlayer(t, fs, "player_1.json")
		assert.Equal(t, 12, r.Attributes["STR"])
		assert.Equal(t, 11, r.Attributes["END"])

		// leaving the origin keeps the stored values editable
		mustRun(t, fs, "set", "player_1.json", "--origin", "goule", "--level", "4")
		assert.Equal(t, 12, loadPlayer(t, fs, "player_1.json").Attributes["STR"])
		assert.Regexp(t, `STR\s+12`, mustRun(t, fs, "show", "player_1.json"))
	})

	t.Run("name must be UTF-8", func(t *testing.T) {
		_, err := run(t, fs, "set", "player_1.json", "--name", "Jos\xe9")
		assert.ErrorIs(t, err, player.ErrValidation)

		_, err = run(t, fs, "new", "--name", "Jos\xe9")
		assert.ErrorIs(t, err, player.ErrValidation)
		exists, err := afero.Exists(fs, filepath.Join(testPlayersDir, "player_2.json"))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("clear origin", func(t *testing.T) {
		mustRun(t, fs, "set", "player_1.json", "--origin", "none")
		assert.Equal(t, catalog.NoOrigin, loadPlayer(t, fs, "player_1.json").Origin)
	})
}

func TestSkillCommands(t *testing.T) {
	fs := afero.NewMemMapFs()
	mustRun(t, fs, "new")

	mustRun(t, fs, "skill", "add", "player_1.json", "Médecine")
	assert.Equal(t, player.Skill{Rank: 1}, loadPlayer(t, fs, "player_1.json").Skills[10])

	mustRun(t, fs, "skill", "tag", "player_1.json", "10")
	mustRun(t, fs, "skill", "rank", "player_1.json", "10", "9")
	assert.Equal(t, player.Skill{Rank: 6, Tagged: true}, loadPlayer(t, fs, "player_1.json").Skills[10])

	mustRun(t, fs, "skill", "rank", "player_1.json", "10", "0")
	assert.NotContains(t, loadPlayer(t, fs, "player_1.json").Skills, catalog.SkillID(10))

	_, err := run(t, fs, "skill", "add", "player_1.json", "42")
	assert.Error(t, err)
}

func TestPerkCommands(t *testing.T) {
	fs := afero.NewMemMapFs()
	mustRun(t, fs, "new")

	_, err := run(t, fs, "perk", "add", "player_1.json", "Armurier")
	assert.ErrorIs(t, err, eligibility.ErrNotEligible)

	out := mustRun(t, fs, "perk", "available", "player_1.json", "--all")
	assert.Contains(t, out, "missing INT >= 6")

	mustRun(t, fs, "set", "player_1.json", "--attr", "INT=6")
	assert.Contains(t, mustRun(t, fs, "perk", "available", "player_1.json"), "Armurier")

	mustRun(t, fs, "perk", "add", "player_1.json", "Armurier")
	assert.Equal(t, 1, loadPlayer(t, fs, "player_1.json").Perks[1])

	t.Run("exclusive pair", func(t *testing.T) {
		mustRun(t, fs, "perk", "add", "player_1.json", "12", "--force")
		_, err := run(t, fs, "perk", "add", "player_1.json", "13", "--force")
		assert.ErrorIs(t, err, player.ErrValidation)

		out := mustRun(t, fs, "perk", "available", "player_1.json", "--all")
		assert.Contains(t, out, "excluded by Nature audacieuse")
	})

	t.Run("remove", func(t *testing.T) {
		mustRun(t, fs, "perk", "remove", "player_1.json", "Armurier")
		assert.NotContains(t, loadPlayer(t, fs, "player_1.json").Perks, catalog.PerkID(1))

		_, err := run(t, fs, "perk", "remove", "player_1.json", "Armurier")
		assert.ErrorIs(t, err, player.ErrValidation)
	})
}

func TestDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	mustRun(t, fs, "new")

	assert.Equal(t, "deleted player_1.json\n", mustRun(t, fs, "delete", "player_1.json"))
	exists, err := afero.Exists(fs, filepath.Join(testPlayersDir, "player_1.json"))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = run(t, fs, "delete", "player_1.json")
	assert.ErrorIs(t, err, playerdata.ErrNotFound)
}

func TestCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	mustRun(t, fs, "new", "--name", "Good")
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testPlayersDir, "player_2.json"),
		[]byte(`{"NAME": "Bad", "LVL": 1, "ORIGIN": -1, "SKILLS": {}}`), 0644))

	_, err := run(t, fs, "show", "player_2.json")
	assert.ErrorIs(t, err, player.ErrCorruptRecord)

	out, err := run(t, fs, "list")
	var listErr *playerdata.ListError
	require.ErrorAs(t, err, &listErr)
	assert.Contains(t, out, "Good")
	assert.Contains(t, out, "skipped player_2.json")

	// the good record stays editable
	mustRun(t, fs, "set", "player_1.json", "--level", "2")
}

func TestCatalogCommand(t *testing.T) {
	out := mustRun(t, afero.NewMemMapFs(), "catalog")
	assert.Contains(t, out, "STR PER END CHA INT AGI LCK (4-10, default 5)")
	assert.Regexp(t, `Super mutant\s+STR max 12, END max 12`, out)
	assert.Contains(t, out, "Nature audacieuse / Nature prudente")
}

func TestConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/waste/waste.yaml", []byte(`
players_dir: data
catalog_path: rules.yaml
audit_log_path: logs/audit.log
`), 0644))
	require.NoError(t, afero.WriteFile(fs, "/etc/waste/rules.yaml", []byte(`
attributes: [STR, AGI]
origins: [Human]
skills: [Guns]
perks:
  - name: Toughness
    max_rank: 1
    requirements:
      - {STR: 3}
`), 0644))

	cmd := newRootCmd(fs)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "/etc/waste/waste.yaml", "new"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "saved player_1.json\n", out.String())

	exists, err := afero.Exists(fs, "/etc/waste/data/player_1.json")
	require.NoError(t, err)
	assert.True(t, exists)

	audit, err := afero.ReadFile(fs, "/etc/waste/logs/audit.log")
	require.NoError(t, err)
	assert.Contains(t, string(audit), `"op":"save"`)

	cmd = newRootCmd(fs)
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "/etc/waste/waste.yaml", "catalog"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Toughness")
	assert.Contains(t, out.String(), "STR >= 3")

	cmd = newRootCmd(fs)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "/etc/waste/waste.yaml", "recompute", "player_1.json"})
	err = cmd.Execute()
	assert.ErrorIs(t, err, player.ErrValidation)
	assert.Contains(t, err.Error(), "END, LCK")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{PlayersDir: "players", LogLevel: "warn", LogFormat: "console"}, false},
		{"no players dir", Config{LogLevel: "warn", LogFormat: "console"}, true},
		{"bad level", Config{PlayersDir: "players", LogLevel: "loud", LogFormat: "console"}, true},
		{"bad format", Config{PlayersDir: "players", LogLevel: "info", LogFormat: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "", resolve("/etc/waste", ""))
	assert.Equal(t, "/srv/players", resolve("/etc/waste", "/srv/players"))
	assert.Equal(t, "/etc/waste/players", resolve("/etc/waste", "players"))
}
