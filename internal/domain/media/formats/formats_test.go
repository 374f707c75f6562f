package formats

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipfetch/clipfetch/internal/domain/media/entities"
)

func TestChainFor(t *testing.T) {
	video := ChainFor(entities.KindVideo)
	require.Equal(t, VideoPrimary, video.Probe)
	require.Equal(t, []string{VideoPrimary, VideoDegraded}, video.Download)

	audio := ChainFor(entities.KindAudio)
	require.Equal(t, AudioPrimary, audio.Probe)
	require.Equal(t, []string{AudioPrimary, AudioDegraded}, audio.Download)
}

func TestOutputTemplate_KindsNeverCollide(t *testing.T) {
	video := OutputTemplate("/tmp/dl", "abc123", entities.KindVideo)
	audio := OutputTemplate("/tmp/dl", "abc123", entities.KindAudio)

	require.NotEqual(t, video, audio, "video and audio staging paths for the same content must differ")
	require.Contains(t, video, "abc123.video.")
	require.Contains(t, audio, "abc123.audio.")
	require.Contains(t, video, "%(ext)s")
}
