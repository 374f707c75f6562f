// Package consts contains constants for the media domain
package consts

// Command represents a bot command
type Command struct {
	Name        string
	Description string
}

// Bot commands
var (
	CommandStart = Command{Name: "start", Description: "Start the bot"}
	CommandHelp  = Command{Name: "help", Description: "Show help message"}
)

// Inline button callback payloads
const (
	CallbackPrefix = "download_"
	CallbackVideo  = "download_video"
	CallbackAudio  = "download_audio"
	CallbackBoth   = "download_both"
)

// KnownHosts are the URL host substrings the bot accepts links for
var KnownHosts = []string{
	"youtube.com",
	"youtu.be",
	"m.youtube.com",
	"music.youtube.com",
}
