package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"hearthlog.gg/internal/enums"
	"hearthlog.gg/internal/packets"
)

func TestEncodePacketCoversEveryVariant(t *testing.T) {
	ts := time.Date(2015, 7, 21, 21, 35, 13, 0, time.UTC)
	all := []packets.Packet{
		&packets.CreateGame{Ts: ts, Entity: 1, Players: []*packets.PlayerDescriptor{
			{Entity: 2, PlayerID: 1, Hi: 144115193835963207, Lo: 127487329},
		}},
		&packets.FullEntity{Ts: ts, Entity: 4, CardID: "HERO_08"},
		&packets.ShowEntity{Ts: ts, Entity: 5, CardID: "CS2_023"},
		&packets.ChangeEntity{Ts: ts, Entity: 5, CardID: "CS2_029"},
		&packets.HideEntity{Ts: ts, Entity: 5, Zone: enums.ZoneDeck},
		&packets.TagChange{Ts: ts, Entity: 1, Tag: enums.TagTurn, Value: 2},
		&packets.Block{Ts: ts, Entity: 1, BlockType: enums.BlockTrigger, SubOption: -1},
		&packets.MetaData{Ts: ts, Meta: enums.MetaDamage, Data: 3, Count: 1, Info: []int{5}},
		&packets.Choices{Ts: ts, Entity: 2, ID: 1, ChoiceType: enums.ChoiceMulligan, Max: 3},
		&packets.SendChoices{Ts: ts, ID: 1, ChoiceType: enums.ChoiceMulligan},
		&packets.ChosenEntities{Ts: ts, Entity: 2, ID: 1, Choices: []int{5}},
		&packets.Options{Ts: ts, ID: 2, Options: []*packets.Option{
			{ID: 0, Kind: "option", OptionType: enums.OptionEndTurn},
		}},
		&packets.SendOption{Ts: ts, Option: 1, SubOption: -1, Target: 4},
	}
	wantKinds := []string{
		"CREATE_GAME", "FULL_ENTITY", "SHOW_ENTITY", "CHANGE_ENTITY",
		"HIDE_ENTITY", "TAG_CHANGE", "BLOCK_START", "META_DATA",
		KindChoices, KindSendChoices, KindChosenEntities, KindOptions,
		KindSendOption,
	}
	for i, pkt := range all {
		msg, err := EncodePacket("g1", uint64(i), pkt)
		if err != nil {
			t.Fatalf("encode %T: %v", pkt, err)
		}
		if msg.Packet.Kind != wantKinds[i] {
			t.Fatalf("kind for %T = %q, want %q", pkt, msg.Packet.Kind, wantKinds[i])
		}
		if msg.Type != TypePacket || msg.GameID != "g1" || msg.Seq != uint64(i) {
			t.Fatalf("frame header wrong: %+v", msg)
		}
	}
}

func TestEncodePacketFieldFidelity(t *testing.T) {
	ts := time.Date(2015, 7, 21, 21, 35, 13, 0, time.UTC)
	tc := &packets.TagChange{Ts: ts, Entity: 3, Tag: enums.TagZone, Value: int(enums.ZoneHand), Def: true}
	msg, err := EncodePacket("g1", 7, tc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back PacketMsg
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Packet.Tag != "ZONE" || back.Packet.Value != 3 || !back.Packet.Def {
		t.Fatalf("tag change lost fields: %+v", back.Packet)
	}
	if back.Packet.Ts == "" {
		t.Fatalf("timestamp dropped")
	}
}

func TestEncodeBlockEnd(t *testing.T) {
	b := &packets.Block{Entity: 1, BlockType: enums.BlockPlay}
	msg := EncodeBlockEnd("g1", 9, b)
	if msg.Packet.Kind != KindBlockEnd || msg.Packet.BlockType != "PLAY" || msg.Packet.Entity != 1 {
		t.Fatalf("block end frame wrong: %+v", msg.Packet)
	}
}
