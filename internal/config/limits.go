package config

const (
	// MaxMessageLength is the maximum length of a user submission in
	// characters. Longer prompts are rejected before any model call.
	MaxMessageLength = 32000

	// MaxTaskLength bounds the input of a decompose request.
	MaxTaskLength = 8000

	// MaxSpeechTextLength bounds the text sent to text-to-speech. Long
	// replies are rejected rather than truncated.
	MaxSpeechTextLength = 5000

	// MaxImagePayloadBytes is the maximum decoded size of an attached image.
	MaxImagePayloadBytes = 7 << 20

	// MaxSuggestions is the maximum number of follow-up suggestions kept on
	// an assistant message.
	MaxSuggestions = 3

	// MaxRequestBodyBytes limits JSON request bodies. It leaves room for a
	// base64 encoded image of MaxImagePayloadBytes.
	MaxRequestBodyBytes = 10 << 20
)
