package model

// XPPerLevel is the XP span of a single level. Level is always derived
// as floor(xp/XPPerLevel)+1 and never stored on its own, so it cannot
// drift from the XP total.
const XPPerLevel = 500

// GamificationState is the session-wide progression state derived from
// task completions. It is persisted alongside tasks and mutated only by
// the engine as part of a task mutation.
type GamificationState struct {
	// XP is the accumulated experience total. It only grows; recall
	// does not claw awards back.
	XP int `json:"xp" db:"xp"`

	// Streak counts consecutive calendar days with at least one
	// completion. Skipping a day resets it to 1 on the next completion.
	Streak int `json:"streak" db:"streak"`

	// Achievements is the append-only ordered set of unlocked
	// achievement keys.
	Achievements []string `json:"achievements" db:"-"`

	// LastCompletedDate is the calendar day ("2006-01-02") of the most
	// recent completion, kept so streak continuation never needs a full
	// task-history scan.
	LastCompletedDate string `json:"last_completed_date" db:"last_completed_date"`
}

// Level derives the current level tier from XP.
func (g GamificationState) Level() int {
	return g.XP/XPPerLevel + 1
}

// HasAchievement reports whether the given key has been unlocked.
func (g GamificationState) HasAchievement(key string) bool {
	for _, k := range g.Achievements {
		if k == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so pure computation stages can build a new
// state without aliasing the committed one.
func (g GamificationState) Clone() GamificationState {
	out := g
	out.Achievements = make([]string, len(g.Achievements))
	copy(out.Achievements, g.Achievements)
	return out
}

// Snapshot is the fully-consistent view of the aggregate returned by
// every engine operation.
type Snapshot struct {
	Tasks  []Task `json:"tasks"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
	Streak int    `json:"streak"`

	// Achievements is the full unlocked set.
	Achievements []string `json:"achievements"`

	// NewAchievements lists the keys unlocked by the operation that
	// produced this snapshot, in unlock order, for sequential display.
	// Transient; never persisted.
	NewAchievements []string `json:"new_achievements,omitempty"`

	// LastCompletedDate mirrors the gamification state's day marker.
	LastCompletedDate string `json:"last_completed_date"`
}
