package realtime

import (
	"encoding/json"

	"github.com/lord-carlos/traktor-api-client/internal/state"
)

// MessageType names a push message on the observer channel.
type MessageType string

const (
	TypeInitialData       MessageType = "initialData"
	TypeDeckLoaded        MessageType = "deckLoaded"
	TypeUpdateDeck        MessageType = "updateDeck"
	TypeUpdateChannel     MessageType = "updateChannel"
	TypeUpdateMasterClock MessageType = "updateMasterClock"
	TypeUpdateBrowser     MessageType = "updateBrowser"
)

// Message is the outbound envelope. Data holds a state.Snapshot for
// initialData and the full post-merge state.Fields otherwise.
type Message struct {
	Type    MessageType `json:"type"`
	Deck    string      `json:"deck,omitempty"`
	Channel string      `json:"channel,omitempty"`
	Data    any         `json:"data"`
	BaseBPM *float64    `json:"baseBpm,omitempty"`
	Rev     string      `json:"rev,omitempty"`
}

// Envelope is Message with Data left undecoded, for observers.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Deck    string          `json:"deck,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data"`
	BaseBPM *float64        `json:"baseBpm,omitempty"`
	Rev     string          `json:"rev,omitempty"`
}

// Key resolves the entity an incremental message refers to.
func (e Envelope) Key() (state.Key, bool) {
	switch e.Type {
	case TypeDeckLoaded, TypeUpdateDeck:
		return state.Key{Category: state.Decks, ID: e.Deck}, true
	case TypeUpdateChannel:
		return state.Key{Category: state.Channels, ID: e.Channel}, true
	case TypeUpdateMasterClock:
		return state.Key{Category: state.MasterClock}, true
	case TypeUpdateBrowser:
		return state.Key{Category: state.Browser}, true
	}
	return state.Key{}, false
}

func initialMessage(snap state.Snapshot) Message {
	return Message{Type: TypeInitialData, Data: snap}
}

// messageFor maps a committed change onto its push message.
func messageFor(change state.Change) Message {
	msg := Message{Data: change.State, Rev: change.Revision}
	switch change.Key.Category {
	case state.Decks:
		msg.Type = TypeUpdateDeck
		if change.Kind == state.KindLoaded {
			msg.Type = TypeDeckLoaded
		}
		msg.Deck = change.Key.ID
		if change.HasBase {
			base := change.BaseBPM
			msg.BaseBPM = &base
		}
	case state.Channels:
		msg.Type = TypeUpdateChannel
		msg.Channel = change.Key.ID
	case state.MasterClock:
		msg.Type = TypeUpdateMasterClock
	case state.Browser:
		msg.Type = TypeUpdateBrowser
	}
	return msg
}
