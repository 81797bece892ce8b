package packets

import (
	"time"

	"hearthlog.gg/internal/entities"
	"hearthlog.gg/internal/enums"
)

// The decision family records what a player was offered and what they picked
// (mulligans, discovers, turn options). None of it affects entity state; the
// packets ride along in the tree for consumers that model choices. They carry
// no power-log discriminant, so Type reports zero.

// Choices is a prompt offering entity choices to one player.
type Choices struct {
	Ts         time.Time
	Entity     int // prompted player
	ID         int
	TaskList   int
	ChoiceType enums.ChoiceType
	Min, Max   int
	Source     int
	Choices    []int
}

func (c *Choices) Type() enums.PowerType      { return 0 }
func (c *Choices) Timestamp() time.Time       { return c.Ts }
func (c *Choices) Apply(*entities.Game) error { return nil }

// SendChoices is the client answering a Choices prompt.
type SendChoices struct {
	Ts         time.Time
	ID         int
	ChoiceType enums.ChoiceType
	Choices    []int
}

func (s *SendChoices) Type() enums.PowerType      { return 0 }
func (s *SendChoices) Timestamp() time.Time       { return s.Ts }
func (s *SendChoices) Apply(*entities.Game) error { return nil }

// ChosenEntities is the server confirming the picked entities.
type ChosenEntities struct {
	Ts      time.Time
	Entity  int
	ID      int
	Choices []int
}

func (c *ChosenEntities) Type() enums.PowerType      { return 0 }
func (c *ChosenEntities) Timestamp() time.Time       { return c.Ts }
func (c *ChosenEntities) Apply(*entities.Game) error { return nil }

// Options lists everything the acting player may legally do this turn.
type Options struct {
	Ts      time.Time
	ID      int
	Options []*Option
}

func (o *Options) Type() enums.PowerType      { return 0 }
func (o *Options) Timestamp() time.Time       { return o.Ts }
func (o *Options) Apply(*entities.Game) error { return nil }

// Option is one entry in an Options listing. Kind distinguishes the option
// itself from its nested sub-options and targets.
type Option struct {
	Ts         time.Time
	Entity     int
	ID         int
	OptionType enums.OptionType
	Kind       string // "option", "subOption" or "target"
	Error      string
	ErrorParam string
	Options    []*Option
}

func (o *Option) Type() enums.PowerType      { return 0 }
func (o *Option) Timestamp() time.Time       { return o.Ts }
func (o *Option) Apply(*entities.Game) error { return nil }

// SendOption is the client's pick from the current Options listing.
type SendOption struct {
	Ts        time.Time
	Option    int
	SubOption int
	Target    int
	Position  int
}

func (s *SendOption) Type() enums.PowerType      { return 0 }
func (s *SendOption) Timestamp() time.Time       { return s.Ts }
func (s *SendOption) Apply(*entities.Game) error { return nil }
