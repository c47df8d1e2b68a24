package http

// Typed views of producer bodies. They are used only to reject malformed
// payloads; the merged state keeps every key the producer sent.

type deckPayload struct {
	Title        *string  `json:"title"`
	Artist       *string  `json:"artist"`
	Album        *string  `json:"album"`
	Key          *string  `json:"key"`
	KeyText      *string  `json:"keyText"`
	ResultingKey *string  `json:"resultingKey"`
	BPM          *float64 `json:"bpm" validate:"omitempty,gte=0"`
	Tempo        *float64 `json:"tempo" validate:"omitempty,gte=0"`
	IsPlaying    *bool    `json:"isPlaying"`
	IsSynced     *bool    `json:"isSynced"`
	IsKeyLockOn  *bool    `json:"isKeyLockOn"`
	ElapsedTime  *float64 `json:"elapsedTime" validate:"omitempty,gte=0"`
	NextCuePos   *float64 `json:"nextCuePos"`
	TrackLength  *float64 `json:"trackLength" validate:"omitempty,gte=0"`
}

type channelPayload struct {
	OnAirLevel *float64 `json:"onAirLevel" validate:"omitempty,gte=0,lte=1"`
	IsOnAir    *bool    `json:"isOnAir"`
}

type masterClockPayload struct {
	Deck *string  `json:"deck"`
	BPM  *float64 `json:"bpm" validate:"omitempty,gte=0"`
}

type browserPayload struct {
	Path           *string  `json:"path"`
	SelectedName   *string  `json:"selectedName"`
	SelectedArtist *string  `json:"selectedArtist"`
	SelectedTitle  *string  `json:"selectedTitle"`
	SelectedBPM    *float64 `json:"selectedBpm" validate:"omitempty,gte=0"`
	Position       *float64 `json:"position"`
}
