package enums

import "testing"

func TestParseGameTag(t *testing.T) {
	cases := []struct {
		in   string
		want GameTag
	}{
		{"ZONE", TagZone},
		{"CONTROLLER", TagController},
		{"PLAYER_ID", TagPlayerID},
		{"ENTITY_ID", TagEntityID},
		{"49", TagZone},
		{"9999", GameTag(9999)},
	}
	for _, c := range cases {
		got, err := ParseGameTag(c.in)
		if err != nil {
			t.Fatalf("ParseGameTag(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseGameTag(%q): got %d want %d", c.in, got, c.want)
		}
	}
	if _, err := ParseGameTag("NOT_A_TAG"); err == nil {
		t.Fatalf("expected error for unknown symbolic tag")
	}
}

func TestParseTagValue(t *testing.T) {
	cases := []struct {
		tag  GameTag
		in   string
		want int
	}{
		{TagZone, "HAND", int(ZoneHand)},
		{TagZone, "PLAY", int(ZonePlay)},
		{TagZone, "3", 3},
		{TagCardType, "MINION", int(CardTypeMinion)},
		{TagPlayState, "WON", int(PlayStateWon)},
		{TagState, "COMPLETE", int(StateComplete)},
		{TagStep, "MAIN_ACTION", int(StepMainAction)},
		{TagNextStep, "MAIN_END", int(StepMainEnd)},
		{TagMulliganState, "DONE", int(MulliganDone)},
		{TagClass, "MAGE", int(ClassMage)},
		{TagController, "2", 2},
		{TagDamage, "7", 7},
	}
	for _, c := range cases {
		got, err := ParseTagValue(c.tag, c.in)
		if err != nil {
			t.Fatalf("ParseTagValue(%s, %q): %v", c.tag, c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseTagValue(%s, %q): got %d want %d", c.tag, c.in, got, c.want)
		}
	}
	if _, err := ParseTagValue(TagController, "BANANA"); err == nil {
		t.Fatalf("expected error for non-numeric value on plain tag")
	}
	if _, err := ParseTagValue(TagZone, "ATTIC"); err == nil {
		t.Fatalf("expected error for unknown zone name")
	}
}

func TestStringRoundTrip(t *testing.T) {
	if TagChange.String() != "TAG_CHANGE" {
		t.Fatalf("PowerType string: got %q", TagChange.String())
	}
	if TagZone.String() != "ZONE" {
		t.Fatalf("GameTag string: got %q", TagZone.String())
	}
	if ZoneHand.String() != "HAND" {
		t.Fatalf("Zone string: got %q", ZoneHand.String())
	}
	if got := PowerType(99).String(); got != "PowerType(99)" {
		t.Fatalf("unknown power type string: got %q", got)
	}
	// Unnamed tags render numerically so archived rows stay greppable.
	if got := GameTag(1234).String(); got != "1234" {
		t.Fatalf("unknown tag string: got %q", got)
	}
}
