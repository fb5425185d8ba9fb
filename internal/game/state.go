// internal/game/state.go
package game

import "encoding/json"

// Symbol is one face a reel can show. The zero value means the reel has not
// been rolled yet and serializes as JSON null so clients render it as blank.
type Symbol string

const (
	SymbolNone      Symbol = ""
	SymbolHorseshoe Symbol = "horseshoe"
	SymbolStar      Symbol = "star"
	SymbolClover    Symbol = "clover"
	SymbolCrown     Symbol = "crown"
	SymbolMoon      Symbol = "moon"
	SymbolBanana    Symbol = "banana"
)

// symbols is the closed domain rolls draw from. SymbolNone is deliberately
// excluded; a rolled reel always shows a real face.
var symbols = []Symbol{
	SymbolHorseshoe,
	SymbolStar,
	SymbolClover,
	SymbolCrown,
	SymbolMoon,
	SymbolBanana,
}

// MarshalJSON emits null for an unrolled reel.
func (s Symbol) MarshalJSON() ([]byte, error) {
	if s == SymbolNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null as SymbolNone.
func (s *Symbol) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = SymbolNone
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = Symbol(str)
	return nil
}

const (
	// NumReels is the fixed reel count; Reels and Holds always have this length.
	NumReels = 5
	// RollsPerTurn is the roll budget each player gets before the turn resolves.
	RollsPerTurn = 3
)

// State is the turn-based game data for one room's current playthrough.
// A fresh pre-game State is attached when a room is created, replaced
// wholesale on start-game, and mutated in place by holds and rolls.
// Field names match the wire contract exactly.
type State struct {
	Round              int            `json:"round"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	PlayersOrder       []string       `json:"playersOrder"`
	Reels              []Symbol       `json:"reels"`
	Holds              []bool         `json:"holds"`
	RollsLeft          int            `json:"rollsLeft"`
	Scores             map[string]int `json:"scores"`
	Started            bool           `json:"started"`
}

// NewState builds a pre-game placeholder: nothing rolled, nothing held,
// full roll budget, no players ordered yet.
func NewState() *State {
	return &State{
		Round:        1,
		PlayersOrder: []string{},
		Reels:        make([]Symbol, NumReels),
		Holds:        make([]bool, NumReels),
		RollsLeft:    RollsPerTurn,
		Scores:       map[string]int{},
	}
}

// Clone returns a deep copy, used to snapshot state for broadcast payloads
// so marshaling never races with the next mutation.
func (st *State) Clone() *State {
	cp := *st
	cp.PlayersOrder = append([]string(nil), st.PlayersOrder...)
	cp.Reels = append([]Symbol(nil), st.Reels...)
	cp.Holds = append([]bool(nil), st.Holds...)
	cp.Scores = make(map[string]int, len(st.Scores))
	for id, sc := range st.Scores {
		cp.Scores[id] = sc
	}
	return &cp
}

// CurrentPlayerID returns the connection id whose turn it is, or "" when the
// order snapshot is empty (a game started with no players).
func (st *State) CurrentPlayerID() string {
	if len(st.PlayersOrder) == 0 {
		return ""
	}
	return st.PlayersOrder[st.CurrentPlayerIndex]
}
