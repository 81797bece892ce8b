package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"hearthlog.gg/internal/enums"
	"hearthlog.gg/internal/packets"
)

var (
	gameEntityRE   = regexp.MustCompile(`^GameEntity EntityID=(\d+)$`)
	playerEntityRE = regexp.MustCompile(`^Player EntityID=(\d+) PlayerID=(\d+) GameAccountId=\[hi=(\d+) lo=(\d+)\]$`)
	fullCreateRE   = regexp.MustCompile(`^FULL_ENTITY - Creating ID=(.+?) CardID=(\S*)$`)
	fullUpdateRE   = regexp.MustCompile(`^FULL_ENTITY - Updating (.+?) CardID=(\S*)$`)
	showEntityRE   = regexp.MustCompile(`^SHOW_ENTITY - Updating (.+?) CardID=(\S*)$`)
	hideEntityRE   = regexp.MustCompile(`^HIDE_ENTITY - Entity=(.+?) tag=(\S+) value=(\S+)$`)
	changeEntityRE = regexp.MustCompile(`^CHANGE_ENTITY - Updating Entity=(.+?) to CardID=(\S*)$`)
	tagChangeRE    = regexp.MustCompile(`^TAG_CHANGE Entity=(.+?) tag=(\S+) value=(\S+?)( DEF CHANGE)?$`)
	blockStartRE   = regexp.MustCompile(`^BLOCK_START BlockType=(\S+) Entity=(.+?) EffectCardId=(.*?) EffectIndex=(-?\d+) Target=(.+?)(?: SubOption=(-?\d+))?(?: TriggerKeyword=(\S+))?$`)
	actionStartRE  = regexp.MustCompile(`^ACTION_START (?:SubType|BlockType)=(\S+) Entity=(.+?) Index=(-?\d+) Target=(.+)$`)
	metaDataRE     = regexp.MustCompile(`^META_DATA - Meta=(\S+) Data=(-?\d+) Info(?:Count)?=(\d+)$`)
	metaInfoRE     = regexp.MustCompile(`^Info\[(\d+)\] = (.+)$`)
	tagLineRE      = regexp.MustCompile(`^tag=(\S+) value=(\S+)$`)
)

func (p *Parser) powerLine(ts time.Time, data string) error {
	if data == "CREATE_GAME" {
		p.startGame(ts)
		return nil
	}
	if p.cur == nil {
		// Joined mid-game; nothing to attach this line to.
		return nil
	}
	switch {
	case strings.HasPrefix(data, "tag="):
		return p.tagLine(data)
	case strings.HasPrefix(data, "GameEntity "):
		return p.gameEntityLine(data)
	case strings.HasPrefix(data, "Player "):
		return p.playerEntityLine(ts, data)
	case strings.HasPrefix(data, "FULL_ENTITY "):
		return p.fullEntityLine(ts, data)
	case strings.HasPrefix(data, "SHOW_ENTITY "):
		return p.showEntityLine(ts, data)
	case strings.HasPrefix(data, "HIDE_ENTITY "):
		return p.hideEntityLine(ts, data)
	case strings.HasPrefix(data, "CHANGE_ENTITY "):
		return p.changeEntityLine(ts, data)
	case strings.HasPrefix(data, "TAG_CHANGE "):
		return p.tagChangeLine(ts, data)
	case strings.HasPrefix(data, "BLOCK_START "), strings.HasPrefix(data, "ACTION_START "):
		return p.blockStartLine(ts, data)
	case data == "BLOCK_END", data == "ACTION_END":
		return p.blockEndLine()
	case strings.HasPrefix(data, "META_DATA "):
		return p.metaDataLine(ts, data)
	case strings.HasPrefix(data, "Info["):
		return p.metaInfoLine(data)
	}
	// Payloads this reader does not model, sub-spell frames among them,
	// pass through without breaking the stream.
	return nil
}

func (p *Parser) tagLine(data string) error {
	m := tagLineRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed tag line")
	}
	if p.curTags == nil {
		return p.errf("tag line outside an entity block")
	}
	tag, err := enums.ParseGameTag(m[1])
	if err != nil {
		return p.errf("tag line: %v", err)
	}
	value, err := enums.ParseTagValue(tag, m[2])
	if err != nil {
		return p.errf("tag line: %v", err)
	}
	*p.curTags = append(*p.curTags, packets.Tag{Name: tag, Value: value})
	return nil
}

func (p *Parser) gameEntityLine(data string) error {
	m := gameEntityRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed GameEntity line")
	}
	if p.pending != p.createGame || p.createGame == nil {
		return p.errf("GameEntity line outside CREATE_GAME")
	}
	id, _ := strconv.Atoi(m[1])
	p.createGame.Entity = id
	p.gameEntity = id
	p.curTags = &p.createGame.Tags
	return nil
}

func (p *Parser) playerEntityLine(ts time.Time, data string) error {
	m := playerEntityRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed Player line")
	}
	if p.pending != p.createGame || p.createGame == nil {
		return p.errf("Player line outside CREATE_GAME")
	}
	id, _ := strconv.Atoi(m[1])
	seat, _ := strconv.Atoi(m[2])
	hi, _ := strconv.ParseUint(m[3], 10, 64)
	lo, _ := strconv.ParseUint(m[4], 10, 64)
	desc := &packets.PlayerDescriptor{Ts: ts, Entity: id, PlayerID: seat, Hi: hi, Lo: lo}
	p.createGame.Players = append(p.createGame.Players, desc)
	p.seats[seat] = id
	p.curTags = &desc.Tags
	return nil
}

func (p *Parser) fullEntityLine(ts time.Time, data string) error {
	var ref, cardID string
	if m := fullCreateRE.FindStringSubmatch(data); m != nil {
		ref, cardID = m[1], m[2]
	} else if m := fullUpdateRE.FindStringSubmatch(data); m != nil {
		ref, cardID = strings.TrimPrefix(m[1], "Entity="), m[2]
	} else {
		return p.errf("malformed FULL_ENTITY line")
	}
	id, err := p.resolveStrict(ref)
	if err != nil {
		return p.errf("FULL_ENTITY: %v", err)
	}
	fe := &packets.FullEntity{Ts: ts, Entity: id, CardID: cardID}
	p.stage(fe, &fe.Tags)
	return nil
}

func (p *Parser) showEntityLine(ts time.Time, data string) error {
	m := showEntityRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed SHOW_ENTITY line")
	}
	ref := strings.TrimPrefix(m[1], "Entity=")
	id, err := p.resolveStrict(ref)
	if err != nil {
		return p.errf("SHOW_ENTITY: %v", err)
	}
	se := &packets.ShowEntity{Ts: ts, Entity: id, CardID: m[2]}
	p.stage(se, &se.Tags)
	return nil
}

func (p *Parser) hideEntityLine(ts time.Time, data string) error {
	m := hideEntityRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed HIDE_ENTITY line")
	}
	id, err := p.resolveStrict(m[1])
	if err != nil {
		return p.errf("HIDE_ENTITY: %v", err)
	}
	tag, err := enums.ParseGameTag(m[2])
	if err != nil {
		return p.errf("HIDE_ENTITY: %v", err)
	}
	if tag != enums.TagZone {
		return p.errf("HIDE_ENTITY carries tag %v, want ZONE", tag)
	}
	value, err := enums.ParseTagValue(tag, m[3])
	if err != nil {
		return p.errf("HIDE_ENTITY: %v", err)
	}
	p.emit(&packets.HideEntity{Ts: ts, Entity: id, Zone: enums.Zone(value)})
	return nil
}

func (p *Parser) changeEntityLine(ts time.Time, data string) error {
	m := changeEntityRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed CHANGE_ENTITY line")
	}
	id, err := p.resolveStrict(m[1])
	if err != nil {
		return p.errf("CHANGE_ENTITY: %v", err)
	}
	ce := &packets.ChangeEntity{Ts: ts, Entity: id, CardID: m[2]}
	p.stage(ce, &ce.Tags)
	return nil
}

func (p *Parser) tagChangeLine(ts time.Time, data string) error {
	m := tagChangeRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed TAG_CHANGE line")
	}
	tag, err := enums.ParseGameTag(m[2])
	if err != nil {
		return p.errf("TAG_CHANGE: %v", err)
	}
	value, err := enums.ParseTagValue(tag, m[3])
	if err != nil {
		return p.errf("TAG_CHANGE: %v", err)
	}
	tc := &packets.TagChange{Ts: ts, Tag: tag, Value: value, Def: m[4] != ""}

	// A PLAYER_ID change naming an entity by display name is how the log
	// first ties that name to a seat.
	if tag == enums.TagPlayerID {
		if _, name, rerr := p.resolveEntity(m[1]); rerr == nil && name != "" {
			p.bindName(name, value)
		}
	}
	if err := p.resolveOrDefer(m[1], func(id int) { tc.Entity = id }); err != nil {
		return p.errf("TAG_CHANGE: %v", err)
	}
	p.emit(tc)
	return nil
}

func (p *Parser) blockStartLine(ts time.Time, data string) error {
	b := &packets.Block{Ts: ts, SubOption: -1}
	var typeName, entityRef, targetRef string
	if m := blockStartRE.FindStringSubmatch(data); m != nil {
		typeName, entityRef, targetRef = m[1], m[2], m[5]
		b.EffectCardID = m[3]
		b.EffectIndex, _ = strconv.Atoi(m[4])
		if m[6] != "" {
			b.SubOption, _ = strconv.Atoi(m[6])
		}
		b.TriggerKeyword = m[7]
	} else if m := actionStartRE.FindStringSubmatch(data); m != nil {
		typeName, entityRef, targetRef = m[1], m[2], m[4]
		b.EffectIndex, _ = strconv.Atoi(m[3])
	} else {
		return p.errf("malformed BLOCK_START line")
	}
	bt, err := enums.ParseBlockType(typeName)
	if err != nil {
		return p.errf("BLOCK_START: %v", err)
	}
	b.BlockType = bt
	if err := p.resolveOrDefer(entityRef, func(id int) { b.Entity = id }); err != nil {
		return p.errf("BLOCK_START: %v", err)
	}
	if err := p.resolveOrDefer(targetRef, func(id int) { b.Target = id }); err != nil {
		return p.errf("BLOCK_START: %v", err)
	}
	p.emit(b)
	return nil
}

func (p *Parser) blockEndLine() error {
	p.announce()
	b, err := p.cur.Tree.EndBlock()
	if err != nil {
		return p.errf("BLOCK_END: %v", err)
	}
	if p.hooks.BlockEnd != nil {
		p.hooks.BlockEnd(b)
	}
	return nil
}

func (p *Parser) metaDataLine(ts time.Time, data string) error {
	m := metaDataRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed META_DATA line")
	}
	meta, err := enums.ParseMetaDataType(m[1])
	if err != nil {
		return p.errf("META_DATA: %v", err)
	}
	md := &packets.MetaData{Ts: ts, Meta: meta}
	md.Data, _ = strconv.Atoi(m[2])
	md.Count, _ = strconv.Atoi(m[3])
	p.stage(md, nil)
	return nil
}

func (p *Parser) metaInfoLine(data string) error {
	m := metaInfoRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed Info line")
	}
	md, ok := p.pending.(*packets.MetaData)
	if !ok {
		return p.errf("Info line outside META_DATA")
	}
	id, err := p.resolveStrict(m[2])
	if err != nil {
		return p.errf("Info line: %v", err)
	}
	md.Info = append(md.Info, id)
	return nil
}
