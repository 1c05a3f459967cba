package protocol

// ACT (client -> host). Only the fields the named action needs are read.
type ActMsg struct {
	Type            string `json:"type,omitempty"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ID              string `json:"id,omitempty"`
	Action          string `json:"action"`

	MercenaryID   string `json:"mercenary_id,omitempty"`
	QuestID       string `json:"quest_id,omitempty"`
	AchievementID string `json:"achievement_id,omitempty"`
	Hours         int    `json:"hours,omitempty"`
	Name          string `json:"name,omitempty"`
	Save          string `json:"save,omitempty"` // export string for LOAD_STATE
}

// ACK (host -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for,omitempty"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Suggestion      string `json:"suggestion,omitempty"`
}

// STATUS (host -> client): a summary of the current state.
type StatusMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seq             uint64 `json:"seq"`

	Gold         int      `json:"gold"`
	PullCost     int      `json:"pull_cost"`
	Fatigue      float64  `json:"fatigue"`
	RosterSize   int      `json:"roster_size"`
	RosterSlots  int      `json:"roster_slots"`
	ActiveQuests int      `json:"active_quests"`
	QuestSlots   int      `json:"quest_slots"`
	Market       string   `json:"market"`
	MarketEndsAt int64    `json:"market_ends_at"`
	Pending      []string `json:"pending_achievements,omitempty"`
}
