package enums

import (
	"fmt"
	"strconv"
)

var powerTypeStrings = map[PowerType]string{
	FullEntity:    "FULL_ENTITY",
	ShowEntity:    "SHOW_ENTITY",
	HideEntity:    "HIDE_ENTITY",
	TagChange:     "TAG_CHANGE",
	BlockStart:    "BLOCK_START",
	BlockEnd:      "BLOCK_END",
	CreateGame:    "CREATE_GAME",
	MetaData:      "META_DATA",
	ChangeEntity:  "CHANGE_ENTITY",
	ResetGame:     "RESET_GAME",
	SubSpellStart: "SUB_SPELL_START",
	SubSpellEnd:   "SUB_SPELL_END",
}

var gameTagStrings = map[GameTag]string{
	TagFirstPlayer:      "FIRST_PLAYER",
	TagPlayState:        "PLAYSTATE",
	TagTurn:             "TURN",
	TagFatigue:          "FATIGUE",
	TagCurrentPlayer:    "CURRENT_PLAYER",
	TagResources:        "RESOURCES",
	TagPlayerID:         "PLAYER_ID",
	TagProposedAttacker: "PROPOSED_ATTACKER",
	TagProposedDefender: "PROPOSED_DEFENDER",
	TagExhausted:        "EXHAUSTED",
	TagDamage:           "DAMAGE",
	TagHealth:           "HEALTH",
	TagAtk:              "ATK",
	TagCost:             "COST",
	TagZone:             "ZONE",
	TagController:       "CONTROLLER",
	TagOwner:            "OWNER",
	TagEntityID:         "ENTITY_ID",
	TagClass:            "CLASS",
	TagCardRace:         "CARDRACE",
	TagFaction:          "FACTION",
	TagCardType:         "CARDTYPE",
	TagRarity:           "RARITY",
	TagState:            "STATE",
	TagZonePosition:     "ZONE_POSITION",
	TagMulliganState:    "MULLIGAN_STATE",
	TagStep:             "STEP",
	TagNextStep:         "NEXT_STEP",
}

var zoneStrings = map[Zone]string{
	ZoneInvalid:         "INVALID",
	ZonePlay:            "PLAY",
	ZoneDeck:            "DECK",
	ZoneHand:            "HAND",
	ZoneGraveyard:       "GRAVEYARD",
	ZoneRemovedFromGame: "REMOVEDFROMGAME",
	ZoneSetAside:        "SETASIDE",
	ZoneSecret:          "SECRET",
}

var blockTypeStrings = map[BlockType]string{
	BlockAttack:     "ATTACK",
	BlockJoust:      "JOUST",
	BlockPower:      "POWER",
	BlockDeaths:     "DEATHS",
	BlockTrigger:    "TRIGGER",
	BlockPlay:       "PLAY",
	BlockFatigue:    "FATIGUE",
	BlockRitual:     "RITUAL",
	BlockRevealCard: "REVEAL_CARD",
	BlockGameReset:  "GAME_RESET",
	BlockMoveMinion: "MOVE_MINION",
}

var metaDataTypeStrings = map[MetaDataType]string{
	MetaTarget:        "TARGET",
	MetaDamage:        "DAMAGE",
	MetaHealing:       "HEALING",
	MetaJoust:         "JOUST",
	MetaClientHistory: "CLIENT_HISTORY",
	MetaShowBigCard:   "SHOW_BIG_CARD",
	MetaEffectTiming:  "EFFECT_TIMING",
	MetaHistoryTarget: "HISTORY_TARGET",
}

var choiceTypeStrings = map[ChoiceType]string{
	ChoiceInvalid:  "INVALID",
	ChoiceMulligan: "MULLIGAN",
	ChoiceGeneral:  "GENERAL",
}

var optionTypeStrings = map[OptionType]string{
	OptionPass:    "PASS",
	OptionEndTurn: "END_TURN",
	OptionPower:   "POWER",
}

var cardTypeStrings = map[CardType]string{
	CardTypeInvalid:     "INVALID",
	CardTypeGame:        "GAME",
	CardTypePlayer:      "PLAYER",
	CardTypeHero:        "HERO",
	CardTypeMinion:      "MINION",
	CardTypeSpell:       "SPELL",
	CardTypeEnchantment: "ENCHANTMENT",
	CardTypeWeapon:      "WEAPON",
	CardTypeItem:        "ITEM",
	CardTypeToken:       "TOKEN",
	CardTypeHeroPower:   "HERO_POWER",
}

var playStateStrings = map[PlayState]string{
	PlayStateInvalid:      "INVALID",
	PlayStatePlaying:      "PLAYING",
	PlayStateWinning:      "WINNING",
	PlayStateLosing:       "LOSING",
	PlayStateWon:          "WON",
	PlayStateLost:         "LOST",
	PlayStateTied:         "TIED",
	PlayStateDisconnected: "DISCONNECTED",
	PlayStateConceded:     "CONCEDED",
}

var stateStrings = map[State]string{
	StateInvalid:  "INVALID",
	StateLoading:  "LOADING",
	StateRunning:  "RUNNING",
	StateComplete: "COMPLETE",
}

var stepStrings = map[Step]string{
	StepInvalid:           "INVALID",
	StepBeginFirst:        "BEGIN_FIRST",
	StepBeginShuffle:      "BEGIN_SHUFFLE",
	StepBeginDraw:         "BEGIN_DRAW",
	StepBeginMulligan:     "BEGIN_MULLIGAN",
	StepMainBegin:         "MAIN_BEGIN",
	StepMainReady:         "MAIN_READY",
	StepMainResource:      "MAIN_RESOURCE",
	StepMainDraw:          "MAIN_DRAW",
	StepMainStart:         "MAIN_START",
	StepMainAction:        "MAIN_ACTION",
	StepMainCombat:        "MAIN_COMBAT",
	StepMainEnd:           "MAIN_END",
	StepMainNext:          "MAIN_NEXT",
	StepFinalWrapup:       "FINAL_WRAPUP",
	StepFinalGameover:     "FINAL_GAMEOVER",
	StepMainCleanup:       "MAIN_CLEANUP",
	StepMainStartTriggers: "MAIN_START_TRIGGERS",
}

var mulliganStateStrings = map[MulliganState]string{
	MulliganInvalid: "INVALID",
	MulliganInput:   "INPUT",
	MulliganDealing: "DEALING",
	MulliganWaiting: "WAITING",
	MulliganDone:    "DONE",
}

var cardClassStrings = map[CardClass]string{
	ClassInvalid:     "INVALID",
	ClassDeathKnight: "DEATHKNIGHT",
	ClassDruid:       "DRUID",
	ClassHunter:      "HUNTER",
	ClassMage:        "MAGE",
	ClassPaladin:     "PALADIN",
	ClassPriest:      "PRIEST",
	ClassRogue:       "ROGUE",
	ClassShaman:      "SHAMAN",
	ClassWarlock:     "WARLOCK",
	ClassWarrior:     "WARRIOR",
	ClassDream:       "DREAM",
	ClassNeutral:     "NEUTRAL",
	ClassWhizbang:    "WHIZBANG",
	ClassDemonHunter: "DEMONHUNTER",
}

var rarityStrings = map[Rarity]string{
	RarityInvalid:   "INVALID",
	RarityCommon:    "COMMON",
	RarityFree:      "FREE",
	RarityRare:      "RARE",
	RarityEpic:      "EPIC",
	RarityLegendary: "LEGENDARY",
}

var factionStrings = map[Faction]string{
	FactionInvalid:  "INVALID",
	FactionHorde:    "HORDE",
	FactionAlliance: "ALLIANCE",
	FactionNeutral:  "NEUTRAL",
}

func invert[T comparable](m map[T]string) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

var (
	gameTagValues       = invert(gameTagStrings)
	zoneValues          = invert(zoneStrings)
	blockTypeValues     = invert(blockTypeStrings)
	metaDataTypeValues  = invert(metaDataTypeStrings)
	choiceTypeValues    = invert(choiceTypeStrings)
	optionTypeValues    = invert(optionTypeStrings)
	cardTypeValues      = invert(cardTypeStrings)
	playStateValues     = invert(playStateStrings)
	stateValues         = invert(stateStrings)
	stepValues          = invert(stepStrings)
	mulliganStateValues = invert(mulliganStateStrings)
	cardClassValues     = invert(cardClassStrings)
	rarityValues        = invert(rarityStrings)
	factionValues       = invert(factionStrings)
)

// ParseGameTag resolves a tag key written either symbolically ("ZONE") or
// numerically ("49"). Unnamed numeric keys are passed through so newer engine
// tags survive parsing.
func ParseGameTag(s string) (GameTag, error) {
	if t, ok := gameTagValues[s]; ok {
		return t, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return GameTag(n), nil
	}
	return 0, fmt.Errorf("unknown game tag %q", s)
}

func ParseBlockType(s string) (BlockType, error) {
	if b, ok := blockTypeValues[s]; ok {
		return b, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return BlockType(n), nil
	}
	return 0, fmt.Errorf("unknown block type %q", s)
}

func ParseMetaDataType(s string) (MetaDataType, error) {
	if m, ok := metaDataTypeValues[s]; ok {
		return m, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return MetaDataType(n), nil
	}
	return 0, fmt.Errorf("unknown meta data type %q", s)
}

func ParseChoiceType(s string) (ChoiceType, error) {
	if c, ok := choiceTypeValues[s]; ok {
		return c, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return ChoiceType(n), nil
	}
	return 0, fmt.Errorf("unknown choice type %q", s)
}

func ParseOptionType(s string) (OptionType, error) {
	if o, ok := optionTypeValues[s]; ok {
		return o, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return OptionType(n), nil
	}
	return 0, fmt.Errorf("unknown option type %q", s)
}

// enumTag maps enum-valued tag keys to their value tables. Every other tag
// carries a plain number.
func enumTagValue(tag GameTag, s string) (int, bool) {
	switch tag {
	case TagZone:
		if v, ok := zoneValues[s]; ok {
			return int(v), true
		}
	case TagCardType:
		if v, ok := cardTypeValues[s]; ok {
			return int(v), true
		}
	case TagPlayState:
		if v, ok := playStateValues[s]; ok {
			return int(v), true
		}
	case TagState:
		if v, ok := stateValues[s]; ok {
			return int(v), true
		}
	case TagStep, TagNextStep:
		if v, ok := stepValues[s]; ok {
			return int(v), true
		}
	case TagMulliganState:
		if v, ok := mulliganStateValues[s]; ok {
			return int(v), true
		}
	case TagClass:
		if v, ok := cardClassValues[s]; ok {
			return int(v), true
		}
	case TagRarity:
		if v, ok := rarityValues[s]; ok {
			return int(v), true
		}
	case TagFaction:
		if v, ok := factionValues[s]; ok {
			return int(v), true
		}
	}
	return 0, false
}

// ParseTagValue resolves one tag value: symbolic for the enum-valued tags,
// numeric for everything else.
func ParseTagValue(tag GameTag, s string) (int, error) {
	if v, ok := enumTagValue(tag, s); ok {
		return v, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	return 0, fmt.Errorf("tag %s: unknown value %q", tag, s)
}
