package calls

// Command is a vendor-neutral call-control instruction.
//
// Commands form a closed set identified by Kind; only the fields documented for
// a kind are meaningful. Build them with the constructors below rather than by hand.
// A routing response is always an ordered []Command; order is significant.

type Command struct {
	Kind CommandKind `json:"kind"`

	// To is the destination for transfer and bridge (E.164 number or sip: URI).
	To string `json:"to,omitempty"`

	// TimeoutSecs is the bridge ring timeout. Zero means the vendor default.
	TimeoutSecs int `json:"timeout_secs,omitempty"`

	// Text and Language are used by speak.
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`

	// AudioURL is used by playback.
	AudioURL string `json:"audio_url,omitempty"`

	// Format, MaxLengthSecs and Transcribe are used by record_start.
	Format        string `json:"format,omitempty"`
	MaxLengthSecs int    `json:"max_length_secs,omitempty"`
	Transcribe    bool   `json:"transcribe,omitempty"`
}

type CommandKind string

const (
	KindAnswer      CommandKind = "answer"
	KindTransfer    CommandKind = "transfer"
	KindBridge      CommandKind = "bridge"
	KindSpeak       CommandKind = "speak"
	KindPlayback    CommandKind = "playback"
	KindRecordStart CommandKind = "record_start"
	KindHangup      CommandKind = "hangup"
)

// DefaultLanguage is the language used for synthesized prompts.
const DefaultLanguage = "ru-RU"

func Answer() Command { return Command{Kind: KindAnswer} }

func Transfer(to string) Command { return Command{Kind: KindTransfer, To: to} }

func Bridge(to string, timeoutSecs int) Command {
	return Command{Kind: KindBridge, To: to, TimeoutSecs: timeoutSecs}
}

func Speak(text string) Command {
	return Command{Kind: KindSpeak, Text: text, Language: DefaultLanguage}
}

func Playback(audioURL string) Command { return Command{Kind: KindPlayback, AudioURL: audioURL} }

func RecordStart(format string, maxLengthSecs int, transcribe bool) Command {
	return Command{Kind: KindRecordStart, Format: format, MaxLengthSecs: maxLengthSecs, Transcribe: transcribe}
}

func Hangup() Command { return Command{Kind: KindHangup} }

// Yields reports whether the command hands control of the call away from the router.
// record_start counts: vendors end the call (or call back) once the recording finishes.
func (c Command) Yields() bool {
	switch c.Kind {
	case KindHangup, KindTransfer, KindBridge, KindRecordStart:
		return true
	default:
		return false
	}
}

// Terminal reports whether cmds is a valid terminal sequence: non-empty and
// ending in a command that yields control.
func Terminal(cmds []Command) bool {
	if len(cmds) == 0 {
		return false
	}
	return cmds[len(cmds)-1].Yields()
}

// EnsureTerminal returns cmds unchanged when it is terminal, otherwise a copy
// with a trailing hangup so the caller is never left in an undefined state.
func EnsureTerminal(cmds []Command) []Command {
	if Terminal(cmds) {
		return cmds
	}
	out := make([]Command, 0, len(cmds)+1)
	out = append(out, cmds...)
	return append(out, Hangup())
}
