// Package pipeline is the client for the diffusion generation service. The
// service owns the model weights, the text encoder and the noise schedulers;
// this package only moves tensors and images across the wire.
package pipeline

import (
	"context"
	"fmt"

	"github.com/bdougie/promptmorph/internal/tensor"
)

// Scheduler selects the noise schedule used by the generation service.
type Scheduler string

const (
	SchedulerDefault Scheduler = "default"
	SchedulerDDIM    Scheduler = "ddim"
	SchedulerKLMS    Scheduler = "klms"
)

// ParseScheduler validates a scheduler name from user input.
func ParseScheduler(s string) (Scheduler, error) {
	switch Scheduler(s) {
	case SchedulerDefault, SchedulerDDIM, SchedulerKLMS:
		return Scheduler(s), nil
	}
	return "", fmt.Errorf("unknown scheduler %q (choose default, ddim or klms)", s)
}

// Metadata describes the loaded model, returned by Load.
type Metadata struct {
	Model          string `json:"model"`
	LatentChannels int    `json:"latent_channels"`
}

// LatentShape returns the shape of an initial noise latent for one image at
// the given output resolution. The VAE downsamples by a factor of 8.
func (m Metadata) LatentShape(height, width int) []int {
	return []int{1, m.LatentChannels, height / 8, width / 8}
}

// GenerateRequest carries everything needed to render one frame.
type GenerateRequest struct {
	Latents           tensor.Tensor `json:"latents"`
	TextEmbeddings    tensor.Tensor `json:"text_embeddings"`
	Height            int           `json:"height"`
	Width             int           `json:"width"`
	GuidanceScale     float64       `json:"guidance_scale"`
	Eta               float64       `json:"eta"`
	NumInferenceSteps int           `json:"num_inference_steps"`
}

// Pipeline is the generation collaborator contract: load the model once,
// then encode prompts and render frames against the loaded state. The
// service holds a single model context, so calls must stay sequential.
type Pipeline interface {
	// Load loads model weights and selects the noise scheduler. It must be
	// called once before EmbedText or Generate.
	Load(ctx context.Context) (Metadata, error)

	// EmbedText encodes a prompt into a text-embedding tensor.
	EmbedText(ctx context.Context, prompt string) (tensor.Tensor, error)

	// Generate renders one frame and returns the encoded JPEG bytes.
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}
