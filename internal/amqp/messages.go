package amqp

import (
	"encoding/json"
	"time"

	"gameradar/internal/notify"
)

// GameUpdatedMessage announces that a tracked game published an update.
type GameUpdatedMessage struct {
	PlaceID     string    `json:"placeId"`
	UniverseID  string    `json:"universeId"`
	Name        string    `json:"name"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	LastUpdated string    `json:"lastUpdated"`
	DetectedAt  time.Time `json:"detectedAt"`
}

func NewGameUpdatedMessage(n notify.Notification) *GameUpdatedMessage {
	return &GameUpdatedMessage{
		PlaceID:     n.PlaceID,
		UniverseID:  n.UniverseID,
		Name:        n.GameName,
		Thumbnail:   n.Icon,
		LastUpdated: n.LastUpdated,
		DetectedAt:  time.Now().UTC(),
	}
}

// Notification turns a received message back into a user notification.
func (m *GameUpdatedMessage) Notification() notify.Notification {
	return notify.Notification{
		Title:       "Update: " + m.Name,
		Body:        "A new update has been detected!",
		Icon:        m.Thumbnail,
		PlaceID:     m.PlaceID,
		UniverseID:  m.UniverseID,
		GameName:    m.Name,
		LastUpdated: m.LastUpdated,
	}
}

func (m *GameUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func GameUpdatedMessageFromJSON(data []byte) (*GameUpdatedMessage, error) {
	var msg GameUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
