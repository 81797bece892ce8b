package protocol

import (
	"fmt"
	"time"

	"hearthlog.gg/internal/packets"
)

// Packet kinds that carry no power-log discriminant of their own.
const (
	KindChoices        = "CHOICES"
	KindSendChoices    = "SEND_CHOICES"
	KindChosenEntities = "CHOSEN_ENTITIES"
	KindOptions        = "OPTIONS"
	KindSendOption     = "SEND_OPTION"
	KindBlockEnd       = "BLOCK_END"
)

// PacketMsg is one PACKET frame. The same shape, one JSON object per line,
// is what the on-disk archive stores.
type PacketMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	GameID          string     `json:"game_id"`
	Seq             uint64     `json:"seq"`
	Packet          PacketJSON `json:"packet"`
}

// PacketJSON is the wire form of one packet. Kind selects which of the
// optional fields are meaningful; zero-valued fields are omitted.
type PacketJSON struct {
	Kind   string    `json:"kind"`
	Ts     string    `json:"ts,omitempty"`
	Entity int       `json:"entity,omitempty"`
	CardID string    `json:"card_id,omitempty"`
	Tags   []TagJSON `json:"tags,omitempty"`

	// CREATE_GAME
	Players []PlayerJSON `json:"players,omitempty"`

	// BLOCK_START / BLOCK_END
	BlockType      string `json:"block_type,omitempty"`
	EffectCardID   string `json:"effect_card_id,omitempty"`
	EffectIndex    int    `json:"effect_index,omitempty"`
	Target         int    `json:"target,omitempty"`
	SubOption      int    `json:"sub_option,omitempty"`
	TriggerKeyword string `json:"trigger_keyword,omitempty"`

	// HIDE_ENTITY
	Zone string `json:"zone,omitempty"`

	// TAG_CHANGE
	Tag   string `json:"tag,omitempty"`
	Value int    `json:"value,omitempty"`
	Def   bool   `json:"def,omitempty"`

	// META_DATA
	Meta  string `json:"meta,omitempty"`
	Data  int    `json:"data,omitempty"`
	Count int    `json:"count,omitempty"`
	Info  []int  `json:"info,omitempty"`

	// Choice and option listings.
	ID         int          `json:"id,omitempty"`
	TaskList   int          `json:"task_list,omitempty"`
	ChoiceType string       `json:"choice_type,omitempty"`
	Min        int          `json:"min,omitempty"`
	Max        int          `json:"max,omitempty"`
	Source     int          `json:"source,omitempty"`
	Choices    []int        `json:"choices,omitempty"`
	Options    []OptionJSON `json:"options,omitempty"`

	// SEND_OPTION
	Option   int `json:"option,omitempty"`
	Position int `json:"position,omitempty"`
}

type TagJSON struct {
	Tag   string `json:"tag"`
	Value int    `json:"value"`
}

type PlayerJSON struct {
	Entity    int       `json:"entity"`
	PlayerID  int       `json:"player_id"`
	AccountHi uint64    `json:"account_hi,omitempty"`
	AccountLo uint64    `json:"account_lo,omitempty"`
	Tags      []TagJSON `json:"tags,omitempty"`
}

type OptionJSON struct {
	ID         int          `json:"id"`
	Kind       string       `json:"kind"`
	OptionType string       `json:"option_type,omitempty"`
	Entity     int          `json:"entity,omitempty"`
	Error      string       `json:"error,omitempty"`
	ErrorParam string       `json:"error_param,omitempty"`
	Options    []OptionJSON `json:"options,omitempty"`
}

// FormatTime renders a packet timestamp for the wire; zero times render
// empty and are omitted.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// EncodePacket builds the PACKET frame for one parsed packet. The switch is
// exhaustive over the closed packet set; anything else is an error.
func EncodePacket(gameID string, seq uint64, pkt packets.Packet) (PacketMsg, error) {
	msg := PacketMsg{
		Type:            TypePacket,
		ProtocolVersion: Version,
		GameID:          gameID,
		Seq:             seq,
	}
	body := PacketJSON{Ts: FormatTime(pkt.Timestamp())}

	switch p := pkt.(type) {
	case *packets.CreateGame:
		body.Kind = p.Type().String()
		body.Entity = p.Entity
		body.Tags = encodeTags(p.Tags)
		for _, d := range p.Players {
			body.Players = append(body.Players, PlayerJSON{
				Entity:    d.Entity,
				PlayerID:  d.PlayerID,
				AccountHi: d.Hi,
				AccountLo: d.Lo,
				Tags:      encodeTags(d.Tags),
			})
		}
	case *packets.FullEntity:
		body.Kind = p.Type().String()
		body.Entity = p.Entity
		body.CardID = p.CardID
		body.Tags = encodeTags(p.Tags)
	case *packets.ShowEntity:
		body.Kind = p.Type().String()
		body.Entity = p.Entity
		body.CardID = p.CardID
		body.Tags = encodeTags(p.Tags)
	case *packets.ChangeEntity:
		body.Kind = p.Type().String()
		body.Entity = p.Entity
		body.CardID = p.CardID
		body.Tags = encodeTags(p.Tags)
	case *packets.HideEntity:
		body.Kind = p.Type().String()
		body.Entity = p.Entity
		body.Zone = p.Zone.String()
	case *packets.TagChange:
		body.Kind = p.Type().String()
		body.Entity = p.Entity
		body.Tag = p.Tag.String()
		body.Value = p.Value
		body.Def = p.Def
	case *packets.Block:
		body.Kind = p.Type().String()
		body.Entity = p.Entity
		body.BlockType = p.BlockType.String()
		body.EffectCardID = p.EffectCardID
		body.EffectIndex = p.EffectIndex
		body.Target = p.Target
		body.SubOption = p.SubOption
		body.TriggerKeyword = p.TriggerKeyword
	case *packets.MetaData:
		body.Kind = p.Type().String()
		body.Meta = p.Meta.String()
		body.Data = p.Data
		body.Count = p.Count
		body.Info = p.Info
	case *packets.Choices:
		body.Kind = KindChoices
		body.Entity = p.Entity
		body.ID = p.ID
		body.TaskList = p.TaskList
		body.ChoiceType = p.ChoiceType.String()
		body.Min = p.Min
		body.Max = p.Max
		body.Source = p.Source
		body.Choices = p.Choices
	case *packets.SendChoices:
		body.Kind = KindSendChoices
		body.ID = p.ID
		body.ChoiceType = p.ChoiceType.String()
		body.Choices = p.Choices
	case *packets.ChosenEntities:
		body.Kind = KindChosenEntities
		body.Entity = p.Entity
		body.ID = p.ID
		body.Choices = p.Choices
	case *packets.Options:
		body.Kind = KindOptions
		body.ID = p.ID
		body.Options = encodeOptions(p.Options)
	case *packets.SendOption:
		body.Kind = KindSendOption
		body.Option = p.Option
		body.SubOption = p.SubOption
		body.Target = p.Target
		body.Position = p.Position
	default:
		return PacketMsg{}, fmt.Errorf("unencodable packet %T", pkt)
	}
	msg.Packet = body
	return msg, nil
}

// EncodeBlockEnd synthesizes the frame marking a block closed; the log has
// no packet for it, but feed consumers need the scope boundary.
func EncodeBlockEnd(gameID string, seq uint64, b *packets.Block) PacketMsg {
	return PacketMsg{
		Type:            TypePacket,
		ProtocolVersion: Version,
		GameID:          gameID,
		Seq:             seq,
		Packet: PacketJSON{
			Kind:      KindBlockEnd,
			Entity:    b.Entity,
			BlockType: b.BlockType.String(),
		},
	}
}

func encodeTags(tags packets.TagList) []TagJSON {
	if len(tags) == 0 {
		return nil
	}
	out := make([]TagJSON, len(tags))
	for i, t := range tags {
		out[i] = TagJSON{Tag: t.Name.String(), Value: t.Value}
	}
	return out
}

func encodeOptions(opts []*packets.Option) []OptionJSON {
	if len(opts) == 0 {
		return nil
	}
	out := make([]OptionJSON, len(opts))
	for i, o := range opts {
		oj := OptionJSON{
			ID:         o.ID,
			Kind:       o.Kind,
			Entity:     o.Entity,
			Error:      o.Error,
			ErrorParam: o.ErrorParam,
			Options:    encodeOptions(o.Options),
		}
		if o.Kind == "option" {
			oj.OptionType = o.OptionType.String()
		}
		out[i] = oj
	}
	return out
}
