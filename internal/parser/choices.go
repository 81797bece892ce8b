package parser

import (
	"regexp"
	"strconv"
	"time"

	"hearthlog.gg/internal/enums"
	"hearthlog.gg/internal/packets"
)

var (
	choicesHeaderRE = regexp.MustCompile(`^id=(\d+) Player=(.+?)(?: TaskList=(\S+))? ChoiceType=(\S+) CountMin=(\d+) CountMax=(\d+)$`)
	choicesSourceRE = regexp.MustCompile(`^Source=(.+)$`)
	entityItemRE    = regexp.MustCompile(`^Entities\[(\d+)\]=(.+)$`)
	sendHeaderRE    = regexp.MustCompile(`^id=(\d+) ChoiceType=(\S+)$`)
	sendItemRE      = regexp.MustCompile(`^m_chosenEntities\[(\d+)\]=(.+)$`)
	chosenHeaderRE  = regexp.MustCompile(`^id=(\d+) Player=(.+?) EntitiesCount=(\d+)$`)

	optionsHeaderRE = regexp.MustCompile(`^id=(\d+)$`)
	optionRE        = regexp.MustCompile(`^option (\d+) type=(\S+) mainEntity=(.*?)(?: error=(\S+)(?: errorParam=(.*))?)?$`)
	subOptionRE     = regexp.MustCompile(`^subOption (\d+) entity=(.*?)(?: error=(\S+)(?: errorParam=(.*))?)?$`)
	targetRE        = regexp.MustCompile(`^target (\d+) entity=(.*?)(?: error=(\S+)(?: errorParam=(.*))?)?$`)
	sendOptionRE    = regexp.MustCompile(`^selectedOption=(-?\d+) selectedSubOption=(-?\d+) selectedTarget=(-?\d+) selectedPosition=(-?\d+)$`)

	buildNumberRE = regexp.MustCompile(`^BuildNumber=(\d+)$`)
	gameTypeRE    = regexp.MustCompile(`^GameType=(\S+)$`)
	formatTypeRE  = regexp.MustCompile(`^FormatType=(\S+)$`)
	scenarioIDRE  = regexp.MustCompile(`^ScenarioID=(\d+)$`)
	playerNameRE  = regexp.MustCompile(`^PlayerID=(\d+), PlayerName=(.+)$`)
)

func (p *Parser) choicesLine(ts time.Time, data string) error {
	if p.cur == nil {
		return nil
	}
	if m := choicesHeaderRE.FindStringSubmatch(data); m != nil {
		ct, err := enums.ParseChoiceType(m[4])
		if err != nil {
			return p.errf("choices: %v", err)
		}
		ch := &packets.Choices{Ts: ts, ChoiceType: ct}
		ch.ID, _ = strconv.Atoi(m[1])
		if m[3] != "" {
			ch.TaskList, _ = strconv.Atoi(m[3])
		}
		ch.Min, _ = strconv.Atoi(m[5])
		ch.Max, _ = strconv.Atoi(m[6])
		if err := p.resolveOrDefer(m[2], func(id int) { ch.Entity = id }); err != nil {
			return p.errf("choices: %v", err)
		}
		p.stage(ch, nil)
		return nil
	}
	if m := choicesSourceRE.FindStringSubmatch(data); m != nil {
		ch, ok := p.pending.(*packets.Choices)
		if !ok {
			return p.errf("Source line outside a choices listing")
		}
		id, err := p.resolveStrict(m[1])
		if err != nil {
			return p.errf("choices source: %v", err)
		}
		ch.Source = id
		return nil
	}
	if m := entityItemRE.FindStringSubmatch(data); m != nil {
		ch, ok := p.pending.(*packets.Choices)
		if !ok {
			return p.errf("Entities line outside a choices listing")
		}
		id, err := p.resolveStrict(m[2])
		if err != nil {
			return p.errf("choices entity: %v", err)
		}
		ch.Choices = append(ch.Choices, id)
		return nil
	}
	return p.errf("malformed choices line")
}

func (p *Parser) sendChoicesLine(ts time.Time, data string) error {
	if p.cur == nil {
		return nil
	}
	if m := sendHeaderRE.FindStringSubmatch(data); m != nil {
		ct, err := enums.ParseChoiceType(m[2])
		if err != nil {
			return p.errf("send choices: %v", err)
		}
		sc := &packets.SendChoices{Ts: ts, ChoiceType: ct}
		sc.ID, _ = strconv.Atoi(m[1])
		p.stage(sc, nil)
		return nil
	}
	if m := sendItemRE.FindStringSubmatch(data); m != nil {
		sc, ok := p.pending.(*packets.SendChoices)
		if !ok {
			return p.errf("m_chosenEntities line outside a send-choices listing")
		}
		id, err := p.resolveStrict(m[2])
		if err != nil {
			return p.errf("send choices entity: %v", err)
		}
		sc.Choices = append(sc.Choices, id)
		return nil
	}
	return p.errf("malformed send-choices line")
}

func (p *Parser) chosenLine(ts time.Time, data string) error {
	if p.cur == nil {
		return nil
	}
	if m := chosenHeaderRE.FindStringSubmatch(data); m != nil {
		ce := &packets.ChosenEntities{Ts: ts}
		ce.ID, _ = strconv.Atoi(m[1])
		if err := p.resolveOrDefer(m[2], func(id int) { ce.Entity = id }); err != nil {
			return p.errf("chosen entities: %v", err)
		}
		p.stage(ce, nil)
		return nil
	}
	if m := entityItemRE.FindStringSubmatch(data); m != nil {
		ce, ok := p.pending.(*packets.ChosenEntities)
		if !ok {
			return p.errf("Entities line outside a chosen-entities listing")
		}
		id, err := p.resolveStrict(m[2])
		if err != nil {
			return p.errf("chosen entity: %v", err)
		}
		ce.Choices = append(ce.Choices, id)
		return nil
	}
	return p.errf("malformed chosen-entities line")
}

func (p *Parser) optionsLine(ts time.Time, data string) error {
	if p.cur == nil {
		return nil
	}
	if m := optionsHeaderRE.FindStringSubmatch(data); m != nil {
		opts := &packets.Options{Ts: ts}
		opts.ID, _ = strconv.Atoi(m[1])
		p.stage(opts, nil)
		p.lastOption = nil
		p.lastSubOption = nil
		return nil
	}
	opts, ok := p.pending.(*packets.Options)
	if !ok {
		return p.errf("option line outside an options listing")
	}
	if m := optionRE.FindStringSubmatch(data); m != nil {
		o, err := p.parseOption(ts, "option", m)
		if err != nil {
			return err
		}
		ot, err := enums.ParseOptionType(m[2])
		if err != nil {
			return p.errf("option: %v", err)
		}
		o.OptionType = ot
		opts.Options = append(opts.Options, o)
		p.lastOption = o
		p.lastSubOption = nil
		return nil
	}
	if m := subOptionRE.FindStringSubmatch(data); m != nil {
		if p.lastOption == nil {
			return p.errf("subOption before any option")
		}
		o, err := p.parseSubEntry(ts, "subOption", m)
		if err != nil {
			return err
		}
		p.lastOption.Options = append(p.lastOption.Options, o)
		p.lastSubOption = o
		return nil
	}
	if m := targetRE.FindStringSubmatch(data); m != nil {
		parent := p.lastSubOption
		if parent == nil {
			parent = p.lastOption
		}
		if parent == nil {
			return p.errf("target before any option")
		}
		o, err := p.parseSubEntry(ts, "target", m)
		if err != nil {
			return err
		}
		parent.Options = append(parent.Options, o)
		return nil
	}
	return p.errf("malformed options line")
}

// parseOption reads a top-level option row; m[3] holds the entity, m[4] and
// m[5] the optional error and its parameter.
func (p *Parser) parseOption(ts time.Time, kind string, m []string) (*packets.Option, error) {
	o := &packets.Option{Ts: ts, Kind: kind, Error: m[4], ErrorParam: m[5]}
	o.ID, _ = strconv.Atoi(m[1])
	if m[3] != "" {
		id, err := p.resolveStrict(m[3])
		if err != nil {
			return nil, p.errf("%s: %v", kind, err)
		}
		o.Entity = id
	}
	return o, nil
}

// parseSubEntry reads a subOption or target row; the entity sits in m[2].
func (p *Parser) parseSubEntry(ts time.Time, kind string, m []string) (*packets.Option, error) {
	o := &packets.Option{Ts: ts, Kind: kind, Error: m[3], ErrorParam: m[4]}
	o.ID, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		id, err := p.resolveStrict(m[2])
		if err != nil {
			return nil, p.errf("%s: %v", kind, err)
		}
		o.Entity = id
	}
	return o, nil
}

func (p *Parser) sendOptionLine(ts time.Time, data string) error {
	if p.cur == nil {
		return nil
	}
	m := sendOptionRE.FindStringSubmatch(data)
	if m == nil {
		return p.errf("malformed send-option line")
	}
	so := &packets.SendOption{Ts: ts}
	so.Option, _ = strconv.Atoi(m[1])
	so.SubOption, _ = strconv.Atoi(m[2])
	so.Target, _ = strconv.Atoi(m[3])
	so.Position, _ = strconv.Atoi(m[4])
	p.emit(so)
	return nil
}

func (p *Parser) gameLine(data string) error {
	if p.cur == nil {
		return nil
	}
	if m := buildNumberRE.FindStringSubmatch(data); m != nil {
		p.cur.Build, _ = strconv.Atoi(m[1])
		return nil
	}
	if m := gameTypeRE.FindStringSubmatch(data); m != nil {
		p.cur.GameType = m[1]
		return nil
	}
	if m := formatTypeRE.FindStringSubmatch(data); m != nil {
		p.cur.FormatType = m[1]
		return nil
	}
	if m := scenarioIDRE.FindStringSubmatch(data); m != nil {
		p.cur.ScenarioID, _ = strconv.Atoi(m[1])
		return nil
	}
	if m := playerNameRE.FindStringSubmatch(data); m != nil {
		seat, _ := strconv.Atoi(m[1])
		p.bindName(m[2], seat)
		return nil
	}
	// The print-game block carries more rows than these; the rest is noise.
	return nil
}
