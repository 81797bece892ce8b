package packets

import (
	"testing"

	"hearthlog.gg/internal/enums"
)

func handCard(entity, controller int, cardID string) *FullEntity {
	return &FullEntity{Entity: entity, CardID: cardID, Tags: TagList{
		{enums.TagZone, int(enums.ZoneHand)},
		{enums.TagController, controller},
	}}
}

func TestFriendlyLegacyDealtHand(t *testing.T) {
	// An unrevealed hand card belongs to the opponent; seat 2's hidden card
	// means the observer sits in seat 1.
	tr := treeOf(
		testCreateGame(),
		handCard(4, 1, "CS2_231"), // own card, revealed, skipped
		handCard(10, 2, ""),
	)
	id, ok := tr.GuessFriendlyPlayer(true)
	if !ok || id != 1 {
		t.Fatalf("legacy guess: got %d %v want 1 true", id, ok)
	}

	// Controller 1 hidden card means the observer is seat 2.
	tr = treeOf(testCreateGame(), handCard(10, 1, ""))
	if id, ok := tr.GuessFriendlyPlayer(true); !ok || id != 2 {
		t.Fatalf("legacy guess: got %d %v want 2 true", id, ok)
	}
}

func TestFriendlyLegacyStopsAtFirstNonFullEntity(t *testing.T) {
	tr := treeOf(
		testCreateGame(),
		handCard(4, 1, "CS2_231"),
		&TagChange{Entity: 1, Tag: enums.TagTurn, Value: 1},
		handCard(10, 2, ""), // after the run ends, never scanned
	)
	if id, ok := tr.GuessFriendlyPlayer(true); ok {
		t.Fatalf("legacy scan must stop at the first non-FULL_ENTITY packet, got %d", id)
	}
}

func TestFriendlyLegacySkipsNonHandZones(t *testing.T) {
	tr := treeOf(
		testCreateGame(),
		&FullEntity{Entity: 4, Tags: TagList{
			{enums.TagZone, int(enums.ZoneDeck)},
			{enums.TagController, 2},
		}},
	)
	if id, ok := tr.GuessFriendlyPlayer(true); ok {
		t.Fatalf("deck card must not answer the legacy scan, got %d", id)
	}
}

func TestFriendlyCurrentFirstReveal(t *testing.T) {
	tr := treeOf(
		testCreateGame(),
		&ShowEntity{Entity: 7, CardID: "EX1_306", Tags: TagList{
			{enums.TagZone, int(enums.ZoneHand)},
			{enums.TagController, 2},
		}},
	)
	if id, ok := tr.GuessFriendlyPlayer(false); !ok || id != 2 {
		t.Fatalf("current guess: got %d %v want 2 true", id, ok)
	}
}

func TestFriendlyCurrentSkipsCardsAlreadyInPlay(t *testing.T) {
	tr := treeOf(
		testCreateGame(),
		&ShowEntity{Entity: 7, CardID: "EX1_306", Tags: TagList{
			{enums.TagZone, int(enums.ZonePlay)},
			{enums.TagController, 2},
		}},
	)
	if id, ok := tr.GuessFriendlyPlayer(false); ok {
		t.Fatalf("in-play reveal is uninformative, got %d", id)
	}
}

func TestFriendlyCurrentScansNestedBlocks(t *testing.T) {
	tr := NewTree()
	tr.Append(testCreateGame())
	tr.Append(&Block{Entity: 2, BlockType: enums.BlockTrigger})
	tr.Append(&Block{Entity: 4, BlockType: enums.BlockPower})
	tr.Append(&ShowEntity{Entity: 7, CardID: "EX1_306", Tags: TagList{
		{enums.TagZone, int(enums.ZoneDeck)},
		{enums.TagController, 1},
	}})
	tr.EndBlock()
	tr.EndBlock()
	// A later top-level reveal must lose to the nested one.
	tr.Append(&ShowEntity{Entity: 8, CardID: "EX1_316", Tags: TagList{
		{enums.TagZone, int(enums.ZoneHand)},
		{enums.TagController, 2},
	}})
	if id, ok := tr.GuessFriendlyPlayer(false); !ok || id != 1 {
		t.Fatalf("nested reveal should win in stream order: got %d %v", id, ok)
	}
}

func TestFriendlyLegacyFallsBackToCurrent(t *testing.T) {
	tr := treeOf(
		testCreateGame(),
		handCard(4, 1, "CS2_231"), // revealed, legacy finds nothing
		&ShowEntity{Entity: 7, CardID: "EX1_306", Tags: TagList{
			{enums.TagZone, int(enums.ZoneHand)},
			{enums.TagController, 2},
		}},
	)
	if id, ok := tr.GuessFriendlyPlayer(true); !ok || id != 2 {
		t.Fatalf("fallback: got %d %v want 2 true", id, ok)
	}
}

func TestFriendlyFlagSelectsStrategy(t *testing.T) {
	// Legacy would answer 1 (hidden card of seat 2); current answers 2
	// (seat 2's own reveal). The flag decides which wins.
	tr := treeOf(
		testCreateGame(),
		handCard(10, 2, ""),
		&ShowEntity{Entity: 7, CardID: "EX1_306", Tags: TagList{
			{enums.TagZone, int(enums.ZoneHand)},
			{enums.TagController, 2},
		}},
	)
	if id, ok := tr.GuessFriendlyPlayer(true); !ok || id != 1 {
		t.Fatalf("attemptOld: got %d %v want 1 true", id, ok)
	}
	if id, ok := tr.GuessFriendlyPlayer(false); !ok || id != 2 {
		t.Fatalf("current only: got %d %v want 2 true", id, ok)
	}
}

func TestFriendlyNoAnswer(t *testing.T) {
	if id, ok := treeOf(testCreateGame()).GuessFriendlyPlayer(true); ok {
		t.Fatalf("bare CreateGame must yield no answer, got %d", id)
	}
	if id, ok := NewTree().GuessFriendlyPlayer(false); ok {
		t.Fatalf("empty tree must yield no answer, got %d", id)
	}
	// A reveal without a controller tag proves nothing.
	tr := treeOf(
		testCreateGame(),
		&ShowEntity{Entity: 7, CardID: "EX1_306", Tags: TagList{
			{enums.TagZone, int(enums.ZoneHand)},
		}},
	)
	if id, ok := tr.GuessFriendlyPlayer(false); ok {
		t.Fatalf("controller-less reveal must yield no answer, got %d", id)
	}
}
