// Package packets defines the typed event variants of the power log, the
// per-game packet tree, the export pass that replays a tree into an entity
// graph, and the friendly-player heuristic.
package packets

import (
	"errors"
	"fmt"
	"time"

	"hearthlog.gg/internal/entities"
	"hearthlog.gg/internal/enums"
)

// ErrUnknownEntity marks a fatal consistency violation: a packet referenced
// an entity id the stream never registered. The affected game is aborted;
// continuing would fabricate state no real game produced.
var ErrUnknownEntity = errors.New("unknown entity")

func unknownEntity(t enums.PowerType, id int) error {
	return fmt.Errorf("%s for unregistered entity %d: %w", t, id, ErrUnknownEntity)
}

// Packet is one event from the log. The variant set is closed: Block,
// MetaData, CreateGame, HideEntity, FullEntity, ShowEntity, ChangeEntity,
// TagChange, and the decision family (Choices, SendChoices, ChosenEntities,
// Options, Option, SendOption). Apply mutates the graph for state-affecting
// variants and is a no-op for structural and decision packets.
type Packet interface {
	Type() enums.PowerType
	Timestamp() time.Time
	Apply(g *entities.Game) error
}

// Tag is one (key, value) pair as it appeared in the log.
type Tag struct {
	Name  enums.GameTag
	Value int
}

// TagList preserves arrival order. The same key may occur more than once;
// the later occurrence wins when the list is folded.
type TagList []Tag

// Fold collapses the list into a key to value map, last write wins in
// arrival order.
func (l TagList) Fold() map[enums.GameTag]int {
	m := make(map[enums.GameTag]int, len(l))
	for _, t := range l {
		m[t.Name] = t.Value
	}
	return m
}

// Block scopes the packets caused by one game action. Its children live in
// the owning tree's flat node storage, not on the struct; see PacketTree.
type Block struct {
	Ts             time.Time
	Entity         int
	BlockType      enums.BlockType
	EffectCardID   string
	EffectIndex    int
	Target         int
	SubOption      int
	TriggerKeyword string

	// Ended is set when the matching BLOCK_END is observed.
	Ended bool

	node int // index into the owning tree
}

func (b *Block) Type() enums.PowerType      { return enums.BlockStart }
func (b *Block) Timestamp() time.Time       { return b.Ts }
func (b *Block) Apply(*entities.Game) error { return nil }

// End closes the block's child scope.
func (b *Block) End() { b.Ended = true }

// MetaData annotates the preceding packets (targets, damage totals, timing).
// It never affects entity state.
type MetaData struct {
	Ts    time.Time
	Meta  enums.MetaDataType
	Data  int
	Count int
	Info  []int
}

func (m *MetaData) Type() enums.PowerType      { return enums.MetaData }
func (m *MetaData) Timestamp() time.Time       { return m.Ts }
func (m *MetaData) Apply(*entities.Game) error { return nil }

// PlayerDescriptor declares one seat inside a CreateGame packet.
type PlayerDescriptor struct {
	Ts       time.Time
	Entity   int
	PlayerID int
	Hi, Lo   uint64
	Tags     TagList
}

// CreateGame opens a game: the game entity itself plus one descriptor per
// seat. It must be the first packet of a tree.
type CreateGame struct {
	Ts      time.Time
	Entity  int
	Tags    TagList
	Players []*PlayerDescriptor
}

func (c *CreateGame) Type() enums.PowerType { return enums.CreateGame }
func (c *CreateGame) Timestamp() time.Time  { return c.Ts }

// Apply is a no-op: the opening CreateGame is consumed by Export directly,
// and a mid-stream one (a new game boundary the producer failed to split)
// must not disturb the graph being built.
func (c *CreateGame) Apply(*entities.Game) error { return nil }

// materialize builds the graph this CreateGame declares: the game entity and
// every seat, registered in declaration order.
func (c *CreateGame) materialize() *entities.Game {
	g := entities.NewGame(c.Entity)
	g.Register(g)
	for t, v := range c.Tags.Fold() {
		g.TagChange(t, v)
	}
	for _, d := range c.Players {
		p := entities.NewPlayer(d.Entity, d.PlayerID, d.Hi, d.Lo)
		for t, v := range d.Tags.Fold() {
			p.TagChange(t, v)
		}
		g.Register(p)
	}
	return g
}

// FullEntity introduces a brand new entity, possibly with a hidden card id.
// The id must not already be registered (producer guarantee).
type FullEntity struct {
	Ts     time.Time
	Entity int
	CardID string
	Tags   TagList
}

func (f *FullEntity) Type() enums.PowerType { return enums.FullEntity }
func (f *FullEntity) Timestamp() time.Time  { return f.Ts }

func (f *FullEntity) Apply(g *entities.Game) error {
	c := entities.NewCard(f.Entity, f.CardID)
	for t, v := range f.Tags.Fold() {
		c.TagChange(t, v)
	}
	g.Register(c)
	return nil
}

// ShowEntity reveals a known entity's card id to the observer.
type ShowEntity struct {
	Ts     time.Time
	Entity int
	CardID string
	Tags   TagList
}

func (s *ShowEntity) Type() enums.PowerType { return enums.ShowEntity }
func (s *ShowEntity) Timestamp() time.Time  { return s.Ts }

func (s *ShowEntity) Apply(g *entities.Game) error {
	e, ok := g.Find(s.Entity)
	if !ok {
		return unknownEntity(enums.ShowEntity, s.Entity)
	}
	e.Reveal(s.CardID, s.Tags.Fold())
	return nil
}

// ChangeEntity morphs a known entity in place: same id, new card id and tags.
type ChangeEntity struct {
	Ts     time.Time
	Entity int
	CardID string
	Tags   TagList
}

func (c *ChangeEntity) Type() enums.PowerType { return enums.ChangeEntity }
func (c *ChangeEntity) Timestamp() time.Time  { return c.Ts }

func (c *ChangeEntity) Apply(g *entities.Game) error {
	e, ok := g.Find(c.Entity)
	if !ok {
		return unknownEntity(enums.ChangeEntity, c.Entity)
	}
	e.Change(c.CardID, c.Tags.Fold())
	return nil
}

// TagChange sets a single tag on a known entity.
type TagChange struct {
	Ts     time.Time
	Entity int
	Tag    enums.GameTag
	Value  int

	// Def marks the "DEF CHANGE" suffix newer clients log on deferred
	// attribute changes. It does not alter apply semantics.
	Def bool
}

func (t *TagChange) Type() enums.PowerType { return enums.TagChange }
func (t *TagChange) Timestamp() time.Time  { return t.Ts }

func (t *TagChange) Apply(g *entities.Game) error {
	e, ok := g.Find(t.Entity)
	if !ok {
		return unknownEntity(enums.TagChange, t.Entity)
	}
	e.TagChange(t.Tag, t.Value)
	return nil
}

// HideEntity removes an entity's card id from the observer's view. Zone is
// where the entity went as it hid.
type HideEntity struct {
	Ts     time.Time
	Entity int
	Zone   enums.Zone
}

func (h *HideEntity) Type() enums.PowerType { return enums.HideEntity }
func (h *HideEntity) Timestamp() time.Time  { return h.Ts }

func (h *HideEntity) Apply(g *entities.Game) error {
	e, ok := g.Find(h.Entity)
	if !ok {
		return unknownEntity(enums.HideEntity, h.Entity)
	}
	e.Hide()
	return nil
}
