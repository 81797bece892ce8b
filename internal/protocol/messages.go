package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// FromStart asks the server to replay the live game's packets so far
	// before streaming new ones.
	FromStart bool `json:"from_start,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	Server          string `json:"server,omitempty"`
	// LiveGameID names the game currently streaming, if one is open.
	LiveGameID string `json:"live_game_id,omitempty"`
}

// PlayerRef describes one seat in a GAME_START announcement.
type PlayerRef struct {
	PlayerID  int    `json:"player_id"`
	Entity    int    `json:"entity"`
	AccountHi uint64 `json:"account_hi,omitempty"`
	AccountLo uint64 `json:"account_lo,omitempty"`
	Name      string `json:"name,omitempty"`
}

// GAME_START (server -> client)
type GameStartMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	GameID          string      `json:"game_id"`
	StartedAt       string      `json:"started_at,omitempty"`
	Players         []PlayerRef `json:"players,omitempty"`
}

// GAME_END (server -> client): the post-export summary of a finished game.
type GameEndMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	GameID          string         `json:"game_id"`
	PacketCount     int            `json:"packet_count"`
	Digest          string         `json:"digest,omitempty"`
	FriendlyPlayer  int            `json:"friendly_player,omitempty"`
	Build           int            `json:"build,omitempty"`
	GameType        string         `json:"game_type,omitempty"`
	FormatType      string         `json:"format_type,omitempty"`
	ScenarioID      int            `json:"scenario_id,omitempty"`
	Names           map[int]string `json:"names,omitempty"`
	StartedAt       string         `json:"started_at,omitempty"`
	EndedAt         string         `json:"ended_at,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
	GameID          string `json:"game_id,omitempty"`
}
