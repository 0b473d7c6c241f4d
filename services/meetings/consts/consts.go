package consts

const (
	// Accepted upload containers
	MimeAudioWebM = "audio/webm"
	MimeVideoWebM = "video/webm"

	MaxUploadSize = 50 * 1024 * 1024 // 50MB

	DefaultPageLimit = 10
	MaxPageLimit     = 100

	// Attributed as creator on pipeline-extracted action items when the
	// meeting owner is unknown.
	SystemActor = "system"
)
