package calls

// Caller-facing prompts. All are spoken in DefaultLanguage.
const (
	PromptNumberNotFound = "Номер не найден. До свидания."
	PromptAIUnavailable  = "Ассистент недоступен. Пожалуйста, оставьте сообщение после сигнала."
	PromptVoicemail      = "Пожалуйста, оставьте сообщение после сигнала."
	PromptError          = "Произошла ошибка. Пожалуйста, перезвоните позже."
)

// Voicemail recording defaults.
const (
	RecordFormatMP3        = "mp3"
	DefaultRecordMaxLength = 120
)

// NumberNotFound is the terminal sequence for a dialed number no tenant owns.
func NumberNotFound() []Command {
	return []Command{Speak(PromptNumberNotFound), Hangup()}
}

// Apology is the terminal sequence used when routing fails unexpectedly.
func Apology() []Command {
	return []Command{Speak(PromptError), Hangup()}
}

// VoicemailSequence answers, plays greeting (or the default prompt) and records.
func VoicemailSequence(greeting string, maxLengthSecs int, transcribe bool) []Command {
	if greeting == "" {
		greeting = PromptVoicemail
	}
	if maxLengthSecs <= 0 {
		maxLengthSecs = DefaultRecordMaxLength
	}
	return []Command{Answer(), Speak(greeting), RecordStart(RecordFormatMP3, maxLengthSecs, transcribe)}
}
