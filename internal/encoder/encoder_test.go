package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgs(t *testing.T) {
	e := New()
	got := e.args("out/frame%06d.jpg", "out.mp4", 15)

	assert.Equal(t, []string{
		"-y",
		"-r", "15",
		"-i", "out/frame%06d.jpg",
		"-vcodec", "libx264",
		"-crf", "25",
		"-pix_fmt", "yuv420p",
		"out.mp4",
	}, got)
}

func TestEncodeMissingBinary(t *testing.T) {
	e := &Encoder{Binary: "definitely-not-an-encoder"}
	err := e.Encode("out/frame%06d.jpg", "out.mp4", 15)
	assert.ErrorContains(t, err, "video encode failed")
}

func TestEncodeSurfacesExitStatus(t *testing.T) {
	// "false" exits non-zero; the failure must not be silent.
	e := &Encoder{Binary: "false"}
	err := e.Encode("out/frame%06d.jpg", "out.mp4", 15)
	assert.Error(t, err)
}
