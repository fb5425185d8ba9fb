// internal/game/engine.go
package game

import (
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Engine enforces the reel-game rules for a single room's State. It owns no
// state of its own besides the random source, so one Engine is shared by
// every room in the process. Callers are responsible for serializing access
// to a given State (the room lock does this); the random source is guarded
// internally since rooms roll from independent goroutines.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an engine seeded from the clock.
func NewEngine() *Engine {
	return NewEngineWithSeed(time.Now().UnixNano())
}

// NewEngineWithSeed returns a deterministic engine, used by tests.
func NewEngineWithSeed(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Start builds the State for a new playthrough. order is a snapshot of the
// room membership at this instant and fixes the turn rotation; every member
// starts at zero points. An empty order is allowed (degenerate but
// reachable) and later turn resolutions no-op on it.
func (e *Engine) Start(order []string) *State {
	st := NewState()
	st.Started = true
	st.PlayersOrder = append([]string(nil), order...)
	for _, id := range order {
		st.Scores[id] = 0
	}
	return st
}

// ToggleHold flips the hold flag at index. Out-of-range indexes are ignored
// rather than rejected: holds carry no ack channel, so a bad index from a
// client is silently dropped.
func (e *Engine) ToggleHold(st *State, index int) {
	if index < 0 || index >= len(st.Holds) {
		log.Debugf("ignoring toggle-hold with out-of-range index %d", index)
		return
	}
	st.Holds[index] = !st.Holds[index]
}

// RollResult reports what a Roll call did.
type RollResult struct {
	// Rolled is false when the roll budget was already exhausted and the
	// call was a no-op.
	Rolled bool
	// Resolved is true when this roll was the last of the turn and scoring
	// plus rotation ran.
	Resolved bool
	// PlayerID and ScoreGain describe the credited player when Resolved.
	PlayerID  string
	ScoreGain int
}

// Roll redraws every unheld reel, consumes one roll, and resolves the turn
// when the budget hits zero.
func (e *Engine) Roll(st *State) RollResult {
	if st.RollsLeft <= 0 {
		return RollResult{}
	}

	for i := range st.Reels {
		if !st.Holds[i] {
			st.Reels[i] = e.draw()
		}
	}
	st.RollsLeft--

	res := RollResult{Rolled: true}
	if st.RollsLeft == 0 {
		res.Resolved = true
		res.PlayerID, res.ScoreGain = e.resolveTurn(st)
	}
	return res
}

// draw picks one face from the symbol domain. The lock makes the shared
// rand.Rand safe when several rooms roll at once; per-room state stays
// under the room lock.
func (e *Engine) draw() Symbol {
	e.mu.Lock()
	defer e.mu.Unlock()
	return symbols[e.rng.Intn(len(symbols))]
}

// resolveTurn credits the current player, rotates the turn, and resets the
// roll budget and holds. With an empty order snapshot there is nobody to
// credit and no index to advance, so only the reset runs; the reel state
// must never be left stuck at zero rolls.
func (e *Engine) resolveTurn(st *State) (playerID string, scoreGain int) {
	if n := len(st.PlayersOrder); n > 0 {
		playerID = st.PlayersOrder[st.CurrentPlayerIndex]
		scoreGain = ScoreReels(st.Reels)
		st.Scores[playerID] += scoreGain

		st.CurrentPlayerIndex = (st.CurrentPlayerIndex + 1) % n
		if st.CurrentPlayerIndex == 0 {
			st.Round++
		}
	}

	st.RollsLeft = RollsPerTurn
	for i := range st.Holds {
		st.Holds[i] = false
	}
	return playerID, scoreGain
}

// ScoreReels computes the points a final reel line is worth: the largest
// same-symbol group sets the base (3 of a kind 1000, 4 of a kind 3000,
// 5 of a kind 10000), then each crown on the line multiplies the base by
// one more, whether or not the crowns formed the group. A crown-heavy line
// that scores a set through another symbol still gets the full multiplier.
func ScoreReels(reels []Symbol) int {
	freq := map[Symbol]int{}
	for _, s := range reels {
		freq[s]++
	}
	best := 0
	for _, n := range freq {
		if n > best {
			best = n
		}
	}

	base := 0
	switch best {
	case 3:
		base = 1000
	case 4:
		base = 3000
	case 5:
		base = 10000
	}

	if crowns := freq[SymbolCrown]; crowns > 0 {
		base *= 1 + crowns
	}
	return base
}
