// Package enums carries the fixed engine vocabulary the power log is written
// in: packet discriminants, tag keys, and the enumerated values certain tags
// take. Values mirror the game engine's own numbering so archived data stays
// comparable across tool versions.
package enums

import "strconv"

// PowerType discriminates the packet variants emitted by the power logger.
type PowerType int

const (
	FullEntity    PowerType = 1
	ShowEntity    PowerType = 2
	HideEntity    PowerType = 3
	TagChange     PowerType = 4
	BlockStart    PowerType = 5
	BlockEnd      PowerType = 6
	CreateGame    PowerType = 7
	MetaData      PowerType = 8
	ChangeEntity  PowerType = 9
	ResetGame     PowerType = 10
	SubSpellStart PowerType = 11
	SubSpellEnd   PowerType = 12
)

// GameTag is the key of one entity attribute. Only the tags the toolkit
// interprets are named; the parser passes every other key through numerically.
type GameTag int

const (
	TagFirstPlayer      GameTag = 7
	TagPlayState        GameTag = 17
	TagTurn             GameTag = 20
	TagFatigue          GameTag = 22
	TagCurrentPlayer    GameTag = 23
	TagResources        GameTag = 26
	TagPlayerID         GameTag = 30
	TagProposedAttacker GameTag = 35
	TagProposedDefender GameTag = 36
	TagExhausted        GameTag = 43
	TagDamage           GameTag = 44
	TagHealth           GameTag = 45
	TagAtk              GameTag = 47
	TagCost             GameTag = 48
	TagZone             GameTag = 49
	TagController       GameTag = 50
	TagOwner            GameTag = 51
	TagEntityID         GameTag = 53
	TagClass            GameTag = 199
	TagCardRace         GameTag = 200
	TagFaction          GameTag = 201
	TagCardType         GameTag = 202
	TagRarity           GameTag = 203
	TagState            GameTag = 204
	TagZonePosition     GameTag = 263
	TagMulliganState    GameTag = 505
	TagStep             GameTag = 507
	TagNextStep         GameTag = 508
)

// Zone classifies where on the board an entity currently lives.
type Zone int

const (
	ZoneInvalid         Zone = 0
	ZonePlay            Zone = 1
	ZoneDeck            Zone = 2
	ZoneHand            Zone = 3
	ZoneGraveyard       Zone = 4
	ZoneRemovedFromGame Zone = 5
	ZoneSetAside        Zone = 6
	ZoneSecret          Zone = 7
)

// BlockType labels the action a BLOCK_START scopes.
type BlockType int

const (
	BlockAttack     BlockType = 1
	BlockJoust      BlockType = 2
	BlockPower      BlockType = 3
	BlockDeaths     BlockType = 4
	BlockTrigger    BlockType = 5
	BlockPlay       BlockType = 7
	BlockFatigue    BlockType = 8
	BlockRitual     BlockType = 9
	BlockRevealCard BlockType = 10
	BlockGameReset  BlockType = 11
	BlockMoveMinion BlockType = 12
)

// MetaDataType labels a META_DATA annotation.
type MetaDataType int

const (
	MetaTarget        MetaDataType = 0
	MetaDamage        MetaDataType = 1
	MetaHealing       MetaDataType = 2
	MetaJoust         MetaDataType = 3
	MetaClientHistory MetaDataType = 4
	MetaShowBigCard   MetaDataType = 5
	MetaEffectTiming  MetaDataType = 6
	MetaHistoryTarget MetaDataType = 7
)

// ChoiceType labels an entity-choice prompt.
type ChoiceType int

const (
	ChoiceInvalid  ChoiceType = 0
	ChoiceMulligan ChoiceType = 1
	ChoiceGeneral  ChoiceType = 2
)

// OptionType labels a presented option.
type OptionType int

const (
	OptionPass    OptionType = 1
	OptionEndTurn OptionType = 2
	OptionPower   OptionType = 3
)

// CardType is the value space of TagCardType.
type CardType int

const (
	CardTypeInvalid     CardType = 0
	CardTypeGame        CardType = 1
	CardTypePlayer      CardType = 2
	CardTypeHero        CardType = 3
	CardTypeMinion      CardType = 4
	CardTypeSpell       CardType = 5
	CardTypeEnchantment CardType = 6
	CardTypeWeapon      CardType = 7
	CardTypeItem        CardType = 8
	CardTypeToken       CardType = 9
	CardTypeHeroPower   CardType = 10
)

// PlayState is the value space of TagPlayState.
type PlayState int

const (
	PlayStateInvalid      PlayState = 0
	PlayStatePlaying      PlayState = 1
	PlayStateWinning      PlayState = 2
	PlayStateLosing       PlayState = 3
	PlayStateWon          PlayState = 4
	PlayStateLost         PlayState = 5
	PlayStateTied         PlayState = 6
	PlayStateDisconnected PlayState = 7
	PlayStateConceded     PlayState = 8
)

// State is the value space of TagState on the game entity.
type State int

const (
	StateInvalid  State = 0
	StateLoading  State = 1
	StateRunning  State = 2
	StateComplete State = 3
)

// Step is the value space of TagStep and TagNextStep.
type Step int

const (
	StepInvalid           Step = 0
	StepBeginFirst        Step = 1
	StepBeginShuffle      Step = 2
	StepBeginDraw         Step = 3
	StepBeginMulligan     Step = 4
	StepMainBegin         Step = 5
	StepMainReady         Step = 6
	StepMainResource      Step = 7
	StepMainDraw          Step = 8
	StepMainStart         Step = 9
	StepMainAction        Step = 10
	StepMainCombat        Step = 11
	StepMainEnd           Step = 12
	StepMainNext          Step = 13
	StepFinalWrapup       Step = 14
	StepFinalGameover     Step = 15
	StepMainCleanup       Step = 16
	StepMainStartTriggers Step = 17
)

// MulliganState is the value space of TagMulliganState.
type MulliganState int

const (
	MulliganInvalid MulliganState = 0
	MulliganInput   MulliganState = 1
	MulliganDealing MulliganState = 2
	MulliganWaiting MulliganState = 3
	MulliganDone    MulliganState = 4
)

// CardClass is the value space of TagClass.
type CardClass int

const (
	ClassInvalid     CardClass = 0
	ClassDeathKnight CardClass = 1
	ClassDruid       CardClass = 2
	ClassHunter      CardClass = 3
	ClassMage        CardClass = 4
	ClassPaladin     CardClass = 5
	ClassPriest      CardClass = 6
	ClassRogue       CardClass = 7
	ClassShaman      CardClass = 8
	ClassWarlock     CardClass = 9
	ClassWarrior     CardClass = 10
	ClassDream       CardClass = 11
	ClassNeutral     CardClass = 12
	ClassWhizbang    CardClass = 13
	ClassDemonHunter CardClass = 14
)

// Rarity is the value space of TagRarity.
type Rarity int

const (
	RarityInvalid   Rarity = 0
	RarityCommon    Rarity = 1
	RarityFree      Rarity = 2
	RarityRare      Rarity = 3
	RarityEpic      Rarity = 4
	RarityLegendary Rarity = 5
)

// Faction is the value space of TagFaction.
type Faction int

const (
	FactionInvalid  Faction = 0
	FactionHorde    Faction = 1
	FactionAlliance Faction = 2
	FactionNeutral  Faction = 3
)

func (t PowerType) String() string {
	if s, ok := powerTypeStrings[t]; ok {
		return s
	}
	return "PowerType(" + strconv.Itoa(int(t)) + ")"
}

func (t GameTag) String() string {
	if s, ok := gameTagStrings[t]; ok {
		return s
	}
	return strconv.Itoa(int(t))
}

func (z Zone) String() string {
	if s, ok := zoneStrings[z]; ok {
		return s
	}
	return "Zone(" + strconv.Itoa(int(z)) + ")"
}

func (b BlockType) String() string {
	if s, ok := blockTypeStrings[b]; ok {
		return s
	}
	return "BlockType(" + strconv.Itoa(int(b)) + ")"
}

func (m MetaDataType) String() string {
	if s, ok := metaDataTypeStrings[m]; ok {
		return s
	}
	return "MetaDataType(" + strconv.Itoa(int(m)) + ")"
}

func (c ChoiceType) String() string {
	if s, ok := choiceTypeStrings[c]; ok {
		return s
	}
	return "ChoiceType(" + strconv.Itoa(int(c)) + ")"
}

func (o OptionType) String() string {
	if s, ok := optionTypeStrings[o]; ok {
		return s
	}
	return "OptionType(" + strconv.Itoa(int(o)) + ")"
}
