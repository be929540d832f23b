package rpg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Hero defaults applied when a hero template omits its stats.
const (
	DefaultHeroStrength = 2
	DefaultHeroHealth   = 4
	DefaultHeroStamina  = 4
)

// Roster file names inside a roster directory.
const (
	HeroesFile  = "heroes.yaml"
	EnemiesFile = "enemies.yaml"
	BossesFile  = "bosses.yaml"
)

// Template is one roster record from which entities are built.
type Template struct {
	Name         string `yaml:"name"`
	Strength     int    `yaml:"strength"`
	Health       int    `yaml:"health"`
	Stamina      int    `yaml:"stamina"`
	Special      string `yaml:"special"`
	SpecialLevel int    `yaml:"special_level"`
	Level        int    `yaml:"level"`
	// Emoji and Blurb are shown in the hero selection menu.
	Emoji string `yaml:"emoji"`
	Blurb string `yaml:"blurb"`
}

// Build returns a fresh entity with the template's stats at full health.
//
// Postcondition: The returned entity shares no state with t.
func (t *Template) Build(role Role) *Entity {
	e := NewEntity(role, t.Name, t.Strength, t.Health, t.Stamina)
	e.Special = t.Special
	if t.SpecialLevel > 0 {
		e.SpecialLevel = t.SpecialLevel
	}
	e.Level = t.Level
	return e
}

// Validate checks t for the given role.
func (t *Template) Validate(role Role) error {
	if t.SpecialLevel < 0 {
		return fmt.Errorf("%s %q: special_level must not be negative", role, t.Name)
	}
	if t.Level < 0 {
		return fmt.Errorf("%s %q: level must not be negative", role, t.Name)
	}
	return t.Build(role).Validate()
}

func (t *Template) applyHeroDefaults() {
	if t.Strength == 0 {
		t.Strength = DefaultHeroStrength
	}
	if t.Health == 0 {
		t.Health = DefaultHeroHealth
	}
	if t.Stamina == 0 {
		t.Stamina = DefaultHeroStamina
	}
}

// Roster is the static hero, enemy and boss data a game draws from.
// A Roster is read-only once loaded.
type Roster struct {
	Heroes  []*Template
	Enemies []*Template
	Bosses  []*Template
}

// Validate checks every template and the cross-list invariants.
//
// Postcondition: nil guarantees at least one hero and one enemy, valid
// templates and unique names within each list.
func (r *Roster) Validate() error {
	if len(r.Heroes) == 0 {
		return errors.New("roster: at least one hero is required")
	}
	if len(r.Enemies) == 0 {
		return errors.New("roster: at least one enemy is required")
	}
	lists := []struct {
		role      Role
		templates []*Template
	}{
		{RoleHero, r.Heroes},
		{RoleEnemy, r.Enemies},
		{RoleBoss, r.Bosses},
	}
	for _, l := range lists {
		seen := make(map[string]bool, len(l.templates))
		for _, t := range l.templates {
			if err := t.Validate(l.role); err != nil {
				return fmt.Errorf("roster: %w", err)
			}
			if seen[t.Name] {
				return fmt.Errorf("roster: duplicate %s %q", l.role, t.Name)
			}
			seen[t.Name] = true
		}
	}
	return nil
}

// Hero returns the hero template named name.
func (r *Roster) Hero(name string) (*Template, bool) {
	for _, t := range r.Heroes {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// UnimplementedSpecials returns the special kinds referenced by the roster
// that abilities cannot resolve, each reported once.
func (r *Roster) UnimplementedSpecials(abilities *Abilities) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, list := range [][]*Template{r.Heroes, r.Enemies, r.Bosses} {
		for _, t := range list {
			if t.Special == "" || seen[t.Special] || abilities.Implemented(t.Special) {
				continue
			}
			seen[t.Special] = true
			missing = append(missing, t.Special)
		}
	}
	return missing
}

// ParseTemplates parses a YAML list of templates for role.
//
// Postcondition: Hero templates have stat defaults applied; every template
// is validated.
func ParseTemplates(data []byte, role Role) ([]*Template, error) {
	var templates []*Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parsing %s templates: %w", role, err)
	}
	for _, t := range templates {
		if role == RoleHero {
			t.applyHeroDefaults()
		}
		if err := t.Validate(role); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// LoadRoster reads heroes.yaml, enemies.yaml and bosses.yaml from dir.
// bosses.yaml is optional; without it the game starts in endless mode.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a validated Roster or an error.
func LoadRoster(dir string) (*Roster, error) {
	heroes, err := loadTemplateFile(filepath.Join(dir, HeroesFile), RoleHero, true)
	if err != nil {
		return nil, err
	}
	enemies, err := loadTemplateFile(filepath.Join(dir, EnemiesFile), RoleEnemy, true)
	if err != nil {
		return nil, err
	}
	bosses, err := loadTemplateFile(filepath.Join(dir, BossesFile), RoleBoss, false)
	if err != nil {
		return nil, err
	}
	r := &Roster{Heroes: heroes, Enemies: enemies, Bosses: bosses}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func loadTemplateFile(path string, role Role, required bool) ([]*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	templates, err := ParseTemplates(data, role)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return templates, nil
}
