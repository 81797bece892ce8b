// Package entities models the reconstructed state of one game: a Game
// aggregate owning Player and Card entities, each addressable by the engine's
// integer entity id and carrying a tag map. The graph is single-writer for
// the duration of one export pass; nothing reads it until the pass finishes.
package entities

import (
	"sort"

	"hearthlog.gg/internal/enums"
)

// Entity is one addressable object in the graph. Concrete kinds are *Game,
// *Player and *Card.
type Entity interface {
	EntityID() int
	CardID() string
	Hidden() bool
	Tag(enums.GameTag) int
	Tags() map[enums.GameTag]int
	InitialController() int

	TagChange(tag enums.GameTag, value int)
	Reveal(cardID string, tags map[enums.GameTag]int)
	Hide()
	Change(cardID string, tags map[enums.GameTag]int)
}

// attrs is the state shared by every entity kind.
type attrs struct {
	id                int
	cardID            string
	initialCardID     string
	tags              map[enums.GameTag]int
	hidden            bool
	initialController int
}

func newAttrs(id int) attrs {
	return attrs{id: id, tags: make(map[enums.GameTag]int, 16)}
}

func (a *attrs) EntityID() int { return a.id }

func (a *attrs) CardID() string { return a.cardID }

// InitialCardID is the first card identifier this entity was ever seen with,
// surviving later morphs.
func (a *attrs) InitialCardID() string { return a.initialCardID }

func (a *attrs) Hidden() bool { return a.hidden }

func (a *attrs) Tag(t enums.GameTag) int { return a.tags[t] }

// Tags returns the live tag map. Callers must not mutate it outside the
// lifecycle hooks.
func (a *attrs) Tags() map[enums.GameTag]int { return a.tags }

// InitialController is the controller the entity first appeared under, before
// any mind-control style changes.
func (a *attrs) InitialController() int { return a.initialController }

func (a *attrs) Zone() enums.Zone { return enums.Zone(a.tags[enums.TagZone]) }

func (a *attrs) Controller() int { return a.tags[enums.TagController] }

func (a *attrs) TagChange(tag enums.GameTag, value int) { a.updateTag(tag, value) }

// Reveal attaches the card identifier and tags a SHOW_ENTITY carries. The
// first revealed card id is remembered as the initial one.
func (a *attrs) Reveal(cardID string, tags map[enums.GameTag]int) {
	a.hidden = false
	if cardID != "" {
		a.cardID = cardID
		if a.initialCardID == "" {
			a.initialCardID = cardID
		}
	}
	a.updateTags(tags)
}

// Hide marks the entity as no longer visible to the observer. Its tags,
// including the last known zone, stay readable.
func (a *attrs) Hide() { a.hidden = true }

// Change morphs the entity in place: same id, new card identifier and tags.
func (a *attrs) Change(cardID string, tags map[enums.GameTag]int) {
	a.cardID = cardID
	a.updateTags(tags)
}

func (a *attrs) updateTags(tags map[enums.GameTag]int) {
	for t, v := range tags {
		a.updateTag(t, v)
	}
}

func (a *attrs) updateTag(tag enums.GameTag, value int) {
	if tag == enums.TagController && a.initialController == 0 {
		if cur, ok := a.tags[tag]; ok {
			a.initialController = cur
		} else {
			a.initialController = value
		}
	}
	a.tags[tag] = value
}

// Game is the root of the graph and an entity itself.
type Game struct {
	attrs
	entities map[int]Entity
	order    []int
	players  []*Player
}

func NewGame(id int) *Game {
	return &Game{
		attrs:    newAttrs(id),
		entities: make(map[int]Entity, 64),
	}
}

// Register adds e to the graph. One entity per id per game is a producer
// guarantee; a repeated id keeps the last registration.
func (g *Game) Register(e Entity) {
	id := e.EntityID()
	if _, exists := g.entities[id]; !exists {
		g.order = append(g.order, id)
		if p, ok := e.(*Player); ok {
			g.players = append(g.players, p)
		}
	}
	g.entities[id] = e
}

// Find looks an entity up by id.
func (g *Game) Find(id int) (Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}

// Players returns the player entities in registration order.
func (g *Game) Players() []*Player { return g.players }

// Player looks a player up by its 1-based player id (not entity id).
func (g *Game) Player(playerID int) (*Player, bool) {
	for _, p := range g.players {
		if p.playerID == playerID {
			return p, true
		}
	}
	return nil, false
}

// Entities returns every registered entity in registration order.
func (g *Game) Entities() []Entity {
	out := make([]Entity, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.entities[id])
	}
	return out
}

// sortedIDs returns every registered id ascending, for canonical output.
func (g *Game) sortedIDs() []int {
	ids := make([]int, len(g.order))
	copy(ids, g.order)
	sort.Ints(ids)
	return ids
}

// Player is one of the two seats.
type Player struct {
	attrs
	playerID int
	hi, lo   uint64
	name     string
}

func NewPlayer(id, playerID int, hi, lo uint64) *Player {
	return &Player{attrs: newAttrs(id), playerID: playerID, hi: hi, lo: lo}
}

// PlayerID is the seat number, 1 or 2.
func (p *Player) PlayerID() int { return p.playerID }

// AccountHi and AccountLo identify the player's account.
func (p *Player) AccountHi() uint64 { return p.hi }
func (p *Player) AccountLo() uint64 { return p.lo }

// Name is the battletag-style display name, bound lazily by the tokenizer.
func (p *Player) Name() string { return p.name }

func (p *Player) SetName(name string) { p.name = name }

// Card is any non-player, non-game entity: heroes, minions, spells, weapons,
// enchantments.
type Card struct {
	attrs
}

func NewCard(id int, cardID string) *Card {
	c := &Card{attrs: newAttrs(id)}
	if cardID != "" {
		c.cardID = cardID
		c.initialCardID = cardID
	}
	return c
}
