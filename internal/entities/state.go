package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// EntityState is the canonical serialized view of one entity. Tag keys render
// through GameTag.String so dumps stay greppable.
type EntityState struct {
	ID        int            `json:"id"`
	Kind      string         `json:"kind"`
	CardID    string         `json:"card_id,omitempty"`
	Hidden    bool           `json:"hidden,omitempty"`
	PlayerID  int            `json:"player_id,omitempty"`
	AccountHi uint64         `json:"account_hi,omitempty"`
	AccountLo uint64         `json:"account_lo,omitempty"`
	Name      string         `json:"name,omitempty"`
	Tags      map[string]int `json:"tags,omitempty"`
}

// GameState is the canonical view of the whole graph: entities ascending by
// id, tag maps keyed by name. Identical graphs marshal to identical bytes.
type GameState struct {
	GameEntity int           `json:"game_entity"`
	Entities   []EntityState `json:"entities"`
}

const (
	KindGame   = "GAME"
	KindPlayer = "PLAYER"
	KindCard   = "CARD"
)

// State snapshots the graph into its canonical form.
func (g *Game) State() GameState {
	st := GameState{GameEntity: g.EntityID()}
	for _, id := range g.sortedIDs() {
		e := g.entities[id]
		es := EntityState{
			ID:     e.EntityID(),
			CardID: e.CardID(),
			Hidden: e.Hidden(),
		}
		switch v := e.(type) {
		case *Game:
			es.Kind = KindGame
		case *Player:
			es.Kind = KindPlayer
			es.PlayerID = v.PlayerID()
			es.AccountHi = v.AccountHi()
			es.AccountLo = v.AccountLo()
			es.Name = v.Name()
		default:
			es.Kind = KindCard
		}
		if tags := e.Tags(); len(tags) > 0 {
			es.Tags = make(map[string]int, len(tags))
			for t, val := range tags {
				es.Tags[t.String()] = val
			}
		}
		st.Entities = append(st.Entities, es)
	}
	return st
}

// Digest is the sha256 of the canonical state, hex encoded. Two exports of
// the same packet stream always produce the same digest.
func (g *Game) Digest() string {
	b, err := json.Marshal(g.State())
	if err != nil {
		// GameState contains only marshalable fields.
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
