package store

type Track string

const (
	TrackDefault Track = "baraban_default.mp3"
	Track1995    Track = "baraban_1995.mp3"
	TrackNapas   Track = "napas.mp3"
	TrackVolchok Track = "volchok.mp3"
)

func (t Track) Valid() bool {
	switch t {
	case TrackDefault, Track1995, TrackNapas, TrackVolchok:
		return true
	}
	return false
}

type SpinDirection string

const (
	Clockwise        SpinDirection = "clockwise"
	CounterClockwise SpinDirection = "counterclockwise"
)

func (d SpinDirection) Valid() bool {
	return d == Clockwise || d == CounterClockwise
}

// Opposite is used by the UI toggle.
func (d SpinDirection) Opposite() SpinDirection {
	if d == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

// Settings are the user preferences of the wheel UI.
type Settings struct {
	AudioVolume   int           `json:"audioVolume"`
	AudioTrack    Track         `json:"audioTrack"`
	SpinDirection SpinDirection `json:"spinDirection"`
}

func DefaultSettings() Settings {
	return Settings{
		AudioVolume:   30,
		AudioTrack:    TrackDefault,
		SpinDirection: Clockwise,
	}
}

// Sanitize replaces every malformed field with its default. Volume is
// clamped to 0..100 rather than reset.
func (s Settings) Sanitize() Settings {
	def := DefaultSettings()
	if s.AudioVolume < 0 {
		s.AudioVolume = 0
	}
	if s.AudioVolume > 100 {
		s.AudioVolume = 100
	}
	if !s.AudioTrack.Valid() {
		s.AudioTrack = def.AudioTrack
	}
	if !s.SpinDirection.Valid() {
		s.SpinDirection = def.SpinDirection
	}
	return s
}
