// Package encoder merges a rendered frame sequence into a video file by
// shelling out to ffmpeg.
package encoder

import (
	"fmt"
	"os/exec"
	"strconv"
)

// Encoder wraps the external video encoder binary.
type Encoder struct {
	// Binary is the encoder executable, ffmpeg unless overridden.
	Binary string
}

// New returns an encoder using the ffmpeg binary from PATH.
func New() *Encoder {
	return &Encoder{Binary: "ffmpeg"}
}

// args builds the full encode argument list for a printf-style frame
// pattern, a frame rate and the output path. -y overwrites prior output.
func (e *Encoder) args(framePattern, outPath string, fps int) []string {
	return []string{
		"-y",
		"-r", strconv.Itoa(fps),
		"-i", framePattern,
		"-vcodec", "libx264",
		"-crf", "25",
		"-pix_fmt", "yuv420p",
		outPath,
	}
}

// Encode runs the encoder over the ordered frame sequence. A non-zero exit
// status or a missing binary is returned as an error with the captured
// encoder output.
func (e *Encoder) Encode(framePattern, outPath string, fps int) error {
	cmd := exec.Command(e.Binary, e.args(framePattern, outPath, fps)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("video encode failed: %v\nOutput: %s", err, string(output))
	}
	return nil
}
