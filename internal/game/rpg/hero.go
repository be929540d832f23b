package rpg

// BossInterval is the number of encounters per boss fight while bosses remain.
const BossInterval = 3

// Hero is the player's entity for a whole game session.
type Hero struct {
	Entity
	// Class is the name of the hero template the player picked.
	Class string
	// Defeated counts encounters won.
	Defeated int
	// RemainingBosses holds pristine copies of bosses not yet beaten, in
	// roster order. The set empties into endless mode.
	RemainingBosses []*Entity
}

// NewHero builds a hero from tmpl and seeds RemainingBosses from bosses.
//
// Precondition: tmpl must be non-nil.
// Postcondition: The hero is at full health and stamina with Defeated == 0.
func NewHero(tmpl *Template, bosses []*Template) *Hero {
	h := &Hero{
		Entity: *tmpl.Build(RoleHero),
		Class:  tmpl.Name,
	}
	for _, b := range bosses {
		h.RemainingBosses = append(h.RemainingBosses, b.Build(RoleBoss))
	}
	return h
}

// EndlessMode reports whether every boss has been beaten.
func (h *Hero) EndlessMode() bool { return len(h.RemainingBosses) == 0 }

// NextOpponent picks the opponent for the next encounter: every
// BossInterval-th fight is the next remaining boss, every other fight (and
// every fight in endless mode) a random enemy from r.
//
// Precondition: r must have at least one enemy; src must be non-nil.
// Postcondition: Returns a fresh entity not shared with the roster or the
// boss list.
func (h *Hero) NextOpponent(r *Roster, src Source) *Entity {
	if !h.EndlessMode() && (h.Defeated+1)%BossInterval == 0 {
		return h.RemainingBosses[0].Clone()
	}
	return r.Enemies[src.Intn(len(r.Enemies))].Build(RoleEnemy)
}

// EndFight records a won encounter against opponent.
//
// Postcondition: Defeated is incremented, a beaten boss leaves
// RemainingBosses, move history is cleared and stamina is full. Health is
// fully restored while bosses remain; in endless mode only half of the
// missing health comes back.
func (h *Hero) EndFight(opponent *Entity) {
	h.Defeated++
	h.ResetForEncounter()
	if opponent != nil && opponent.Role == RoleBoss {
		h.removeBoss(opponent.Name)
	}
	h.RestoreStamina()
	if !h.EndlessMode() {
		h.Health = h.MaxHealth
		return
	}
	h.Heal((h.MaxHealth - h.Health) / 2)
}

func (h *Hero) removeBoss(name string) {
	for i, b := range h.RemainingBosses {
		if b.Name == name {
			h.RemainingBosses = append(h.RemainingBosses[:i], h.RemainingBosses[i+1:]...)
			return
		}
	}
}
