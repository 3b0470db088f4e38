package events

const (
	// KindAudioDelta identifies one opaque binary audio frame.
	KindAudioDelta Kind = "audio.delta"
	// KindAudioDone identifies audio stream completion for the turn.
	KindAudioDone Kind = "audio.done"
)

// AudioDelta carries one binary audio frame, untouched by this layer.
type AudioDelta struct {
	Base
	Audio []byte
}

// NewAudioDelta creates an audio delta event.
func NewAudioDelta(audio []byte) AudioDelta {
	return AudioDelta{Base: NewBase(KindAudioDelta), Audio: audio}
}

// AudioDone marks audio stream completion for the turn.
type AudioDone struct {
	Base
	TurnID string
}

// NewAudioDone creates an audio done event.
func NewAudioDone(turnID string) AudioDone {
	return AudioDone{Base: NewBase(KindAudioDone), TurnID: turnID}
}
