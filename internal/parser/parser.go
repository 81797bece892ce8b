// Package parser turns raw power-log lines into typed packet trees. It
// understands the GameState logger family (DebugPrintPower, DebugPrintGame,
// the choice and option printers) and ignores everything else, including the
// PowerTaskList duplicates of the same stream.
//
// A Parser is fed one line at a time and is not safe for concurrent use. It
// guarantees the packet-tree contract the export pass relies on: element 0 of
// every emitted tree is the CreateGame packet, packets append in arrival
// order to the innermost open block, and a block closes exactly when its end
// marker is read.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hearthlog.gg/internal/entities"
	"hearthlog.gg/internal/packets"
)

// Builds older than this dealt the opening hands as a bare FULL_ENTITY run,
// which the cheap friendly-seat scan depends on.
const oldHandDealBuild = 13619

// ParseError describes one malformed log line. The parser keeps its state
// consistent after returning one; callers may continue feeding lines.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Game is one complete game as read from the log: its packet tree plus the
// metadata the DebugPrintGame block carries.
type Game struct {
	Tree       *packets.PacketTree
	Build      int
	GameType   string
	FormatType string
	ScenarioID int

	// Names maps seat number to display name, bound lazily while parsing.
	Names map[int]string
}

// LegacyHand reports whether this game's client build still logged the
// opening hand deal the old way.
func (g *Game) LegacyHand() bool {
	return g.Build != 0 && g.Build < oldHandDealBuild
}

// Export replays the tree into an entity graph and attaches the display
// names the log bound to each seat.
func (g *Game) Export() (*entities.Game, error) {
	graph, err := g.Tree.Export()
	if err != nil {
		return nil, err
	}
	for seat, name := range g.Names {
		if p, ok := graph.Player(seat); ok {
			p.SetName(name)
		}
	}
	return graph, nil
}

// Hooks receive parse progress as it happens. Every field is optional.
// Multi-line packets are announced once their continuation lines are
// complete, so a Packet callback always sees final tag lists.
type Hooks struct {
	GameStart func(*Game)
	Packet    func(packets.Packet)
	BlockEnd  func(*packets.Block)
	GameEnd   func(*Game)
}

type pendingRef struct {
	name string
	set  func(int)
}

// Parser consumes power-log lines and emits packet trees.
type Parser struct {
	hooks Hooks
	games []*Game

	lineNo    int
	line      string
	lastTS    time.Time
	dayOffset time.Duration

	cur        *Game
	createGame *packets.CreateGame
	gameEntity int

	// pending is the packet still accumulating continuation lines; it is
	// announced when the next packet starts, a block closes, or the game
	// ends.
	pending packets.Packet
	curTags *packets.TagList

	lastOption    *packets.Option
	lastSubOption *packets.Option

	seats       map[int]int    // seat number -> player entity id
	names       map[string]int // display name -> player entity id
	pendingRefs []pendingRef
}

func New(hooks Hooks) *Parser {
	return &Parser{hooks: hooks}
}

var (
	lineRE   = regexp.MustCompile(`^[DWE] ([\d:.]+) (.+)$`)
	methodRE = regexp.MustCompile(`^([A-Za-z]+)\.([A-Za-z_]+)\(\)\s*-\s*(.*)$`)
	entityRE = regexp.MustCompile(`^\[.*?\bid=(\d+)\b.*\]$`)
)

// Line feeds one raw log line. Lines that are not GameState output are
// ignored. A returned *ParseError marks the line malformed; parsing may
// continue afterwards.
func (p *Parser) Line(raw string) error {
	p.lineNo++
	p.line = strings.TrimSuffix(raw, "\r")

	m := lineRE.FindStringSubmatch(p.line)
	if m == nil {
		return nil
	}
	ts, err := p.parseTimestamp(m[1])
	if err != nil {
		return p.errf("bad timestamp %q", m[1])
	}
	mm := methodRE.FindStringSubmatch(m[2])
	if mm == nil {
		return nil
	}
	logger, method, data := mm[1], mm[2], strings.TrimSpace(mm[3])
	if logger != "GameState" {
		return nil
	}
	switch method {
	case "DebugPrintPower":
		return p.powerLine(ts, data)
	case "DebugPrintGame":
		return p.gameLine(data)
	case "DebugPrintEntityChoices", "DebugPrintChoices":
		return p.choicesLine(ts, data)
	case "SendChoices":
		return p.sendChoicesLine(ts, data)
	case "DebugPrintEntitiesChosen":
		return p.chosenLine(ts, data)
	case "DebugPrintOptions":
		return p.optionsLine(ts, data)
	case "SendOption":
		return p.sendOptionLine(ts, data)
	}
	return nil
}

// ReadFrom feeds every line of r and flushes at EOF. The first error,
// malformed line included, aborts the read.
func (p *Parser) ReadFrom(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if err := p.Line(sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	p.Flush()
	return nil
}

// Flush ends the game in progress, if any. Call at end of input.
func (p *Parser) Flush() {
	p.endGame()
}

// Games returns every completed game in log order.
func (p *Parser) Games() []*Game { return p.games }

func (p *Parser) errf(format string, args ...any) error {
	return &ParseError{Line: p.lineNo, Text: p.line, Err: fmt.Errorf(format, args...)}
}

// parseTimestamp reads the time-of-day stamp. The log never carries a date,
// so a backwards jump means the clock wrapped past midnight.
func (p *Parser) parseTimestamp(s string) (time.Time, error) {
	var t time.Time
	var err error
	for _, layout := range []string{"15:04:05.0000000", "15:04:05"} {
		if t, err = time.Parse(layout, s); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, err
	}
	t = t.Add(p.dayOffset)
	if !p.lastTS.IsZero() && t.Before(p.lastTS) {
		p.dayOffset += 24 * time.Hour
		t = t.Add(24 * time.Hour)
	}
	p.lastTS = t
	return t, nil
}

func (p *Parser) startGame(ts time.Time) {
	p.endGame()
	cg := &packets.CreateGame{Ts: ts}
	tree := packets.NewTree()
	tree.Append(cg)
	p.cur = &Game{Tree: tree, Names: make(map[int]string)}
	p.createGame = cg
	p.pending = cg
	p.curTags = nil
	p.gameEntity = 0
	p.seats = make(map[int]int, 2)
	p.names = make(map[string]int, 2)
	p.pendingRefs = nil
	if p.hooks.GameStart != nil {
		p.hooks.GameStart(p.cur)
	}
}

func (p *Parser) endGame() {
	if p.cur == nil {
		return
	}
	p.announce()
	p.resolveLastName()
	g := p.cur
	p.cur = nil
	p.createGame = nil
	p.curTags = nil
	p.lastOption = nil
	p.lastSubOption = nil
	p.games = append(p.games, g)
	if p.hooks.GameEnd != nil {
		p.hooks.GameEnd(g)
	}
}

// announce flushes the packet that was accumulating continuation lines.
func (p *Parser) announce() {
	if p.pending == nil {
		return
	}
	pkt := p.pending
	p.pending = nil
	p.curTags = nil
	if p.hooks.Packet != nil {
		p.hooks.Packet(pkt)
	}
}

// emit appends a single-line packet and announces it immediately.
func (p *Parser) emit(pkt packets.Packet) {
	p.announce()
	p.cur.Tree.Append(pkt)
	if p.hooks.Packet != nil {
		p.hooks.Packet(pkt)
	}
}

// stage appends a packet that expects continuation lines; it is announced
// later by announce.
func (p *Parser) stage(pkt packets.Packet, tags *packets.TagList) {
	p.announce()
	p.cur.Tree.Append(pkt)
	p.pending = pkt
	p.curTags = tags
}

// resolveEntity turns an entity reference into an id. References come as a
// plain integer, the literal GameEntity, a bracketed entity dump, or a
// player's display name; names may not be bound yet, in which case the
// returned name is non-empty and the id is not usable.
func (p *Parser) resolveEntity(s string) (id int, name string, err error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, "", nil
	}
	if n, aerr := strconv.Atoi(s); aerr == nil {
		return n, "", nil
	}
	if s == "GameEntity" {
		return p.gameEntity, "", nil
	}
	if m := entityRE.FindStringSubmatch(s); m != nil {
		n, aerr := strconv.Atoi(m[1])
		if aerr != nil {
			return 0, "", fmt.Errorf("bad entity dump %q", s)
		}
		return n, "", nil
	}
	if id, ok := p.names[s]; ok {
		return id, "", nil
	}
	return 0, s, nil
}

// resolveStrict is resolveEntity for places a display name cannot appear.
func (p *Parser) resolveStrict(s string) (int, error) {
	id, name, err := p.resolveEntity(s)
	if err != nil {
		return 0, err
	}
	if name != "" {
		return 0, fmt.Errorf("unresolvable entity reference %q", s)
	}
	return id, nil
}

// resolveOrDefer resolves now when possible and otherwise patches the target
// through set once the name binds.
func (p *Parser) resolveOrDefer(s string, set func(int)) error {
	id, name, err := p.resolveEntity(s)
	if err != nil {
		return err
	}
	if name != "" {
		p.pendingRefs = append(p.pendingRefs, pendingRef{name: name, set: set})
		return nil
	}
	set(id)
	return nil
}

// bindName ties a display name to a seat's player entity and patches every
// reference that was waiting for it.
func (p *Parser) bindName(name string, seat int) {
	entity, ok := p.seats[seat]
	if !ok {
		return
	}
	p.names[name] = entity
	p.cur.Names[seat] = name
	rest := p.pendingRefs[:0]
	for _, ref := range p.pendingRefs {
		if ref.name == name {
			ref.set(entity)
		} else {
			rest = append(rest, ref)
		}
	}
	p.pendingRefs = rest
}

// resolveLastName handles the common case where only one seat ever got a
// name: with two seats total, every dangling reference must be the other one.
func (p *Parser) resolveLastName() {
	if len(p.pendingRefs) == 0 || len(p.seats) != 2 {
		return
	}
	unnamed := make([]int, 0, 2)
	for seat := range p.seats {
		if _, ok := p.cur.Names[seat]; !ok {
			unnamed = append(unnamed, seat)
		}
	}
	if len(unnamed) != 1 {
		return
	}
	pending := make(map[string]bool)
	for _, ref := range p.pendingRefs {
		pending[ref.name] = true
	}
	if len(pending) != 1 {
		return
	}
	for name := range pending {
		p.bindName(name, unnamed[0])
	}
}
