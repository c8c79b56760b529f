// Package driver walks consecutive prompt pairs and renders the
// interpolated frames that make up the final video.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bdougie/promptmorph/internal/interp"
	"github.com/bdougie/promptmorph/internal/models"
	"github.com/bdougie/promptmorph/internal/pipeline"
	"github.com/bdougie/promptmorph/internal/storage"
	"github.com/bdougie/promptmorph/internal/tensor"
)

// Progress is logged on the first step and every progressInterval frames.
const progressInterval = 20

// Config holds the per-run generation settings.
type Config struct {
	OutputDir         string
	Height            int
	Width             int
	GuidanceScale     float64
	Eta               float64
	NumInferenceSteps int
	// NumSteps is the number of interpolation samples per prompt pair,
	// covering [0,1] inclusive.
	NumSteps int
	// UseLerpForText switches the text-embedding interpolation from
	// spherical to linear. Latents always interpolate spherically.
	UseLerpForText bool
}

// Driver renders one interpolation run through a loaded pipeline.
type Driver struct {
	pipe   pipeline.Pipeline
	meta   pipeline.Metadata
	store  storage.Storage
	logger *slog.Logger
	cfg    Config
}

// New builds a driver around an already-loaded pipeline.
func New(pipe pipeline.Pipeline, meta pipeline.Metadata, store storage.Storage, logger *slog.Logger, cfg Config) *Driver {
	return &Driver{
		pipe:   pipe,
		meta:   meta,
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// anchor is one end of a prompt-pair transition.
type anchor struct {
	prompt  string
	seed    int
	embeds  tensor.Tensor
	latents tensor.Tensor
}

// Run renders every frame of the interpolation and returns the number of
// frames written. Frame indices are global across prompt pairs, so the
// whole run forms one contiguous animation.
func (d *Driver) Run(ctx context.Context, prompts []string, seeds []int) (int, error) {
	if len(prompts) != len(seeds) {
		return 0, fmt.Errorf("got %d prompts but %d seeds", len(prompts), len(seeds))
	}
	if len(prompts) < 2 {
		return 0, fmt.Errorf("need at least two prompts to interpolate, got %d", len(prompts))
	}

	if err := d.resetOutputDir(); err != nil {
		return 0, err
	}

	from, err := d.makeAnchor(ctx, prompts[0], seeds[0])
	if err != nil {
		return 0, err
	}

	steps := interp.Linspace(d.cfg.NumSteps)
	totalFrames := (len(prompts) - 1) * len(steps)

	frameIndex := 0
	for pair := 1; pair < len(prompts); pair++ {
		to, err := d.makeAnchor(ctx, prompts[pair], seeds[pair])
		if err != nil {
			return frameIndex, err
		}

		for i, t := range steps {
			if err := ctx.Err(); err != nil {
				return frameIndex, err
			}

			if i == 0 || (frameIndex+1)%progressInterval == 0 {
				d.logger.Info(fmt.Sprintf("COUNT: %d/%d", frameIndex+1, totalFrames))
			}

			if err := d.renderFrame(ctx, from, to, t, frameIndex); err != nil {
				return frameIndex, err
			}
			frameIndex++
		}

		from = to
	}

	if err := d.store.Flush(); err != nil {
		return frameIndex, fmt.Errorf("failed to flush frame records: %v", err)
	}

	return frameIndex, nil
}

// resetOutputDir recreates the frame directory so every run starts from a
// clean, contiguous frame sequence.
func (d *Driver) resetOutputDir() error {
	if err := os.RemoveAll(d.cfg.OutputDir); err != nil {
		return fmt.Errorf("failed to clear output directory '%s': %v", d.cfg.OutputDir, err)
	}
	if err := os.MkdirAll(d.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory '%s': %v", d.cfg.OutputDir, err)
	}
	return nil
}

// makeAnchor embeds a prompt and draws its seeded initial latent.
func (d *Driver) makeAnchor(ctx context.Context, prompt string, seed int) (anchor, error) {
	embeds, err := d.pipe.EmbedText(ctx, prompt)
	if err != nil {
		return anchor{}, err
	}

	latents := tensor.Noise(d.meta.LatentShape(d.cfg.Height, d.cfg.Width), seed)

	if err := d.store.AddPrompt(ctx, prompt, seed, embeds.Data); err != nil {
		return anchor{}, err
	}

	return anchor{prompt: prompt, seed: seed, embeds: embeds, latents: latents}, nil
}

func (d *Driver) renderFrame(ctx context.Context, from, to anchor, t float64, frameIndex int) error {
	var embeds tensor.Tensor
	if d.cfg.UseLerpForText {
		embeds = tensor.New(from.embeds.Shape, interp.Lerp(t, from.embeds.Float64s(), to.embeds.Float64s()))
	} else {
		embeds = tensor.New(from.embeds.Shape, interp.Slerp(t, from.embeds.Float64s(), to.embeds.Float64s()))
	}
	latents := tensor.New(from.latents.Shape, interp.Slerp(t, from.latents.Float64s(), to.latents.Float64s()))

	img, err := d.pipe.Generate(ctx, pipeline.GenerateRequest{
		Latents:           latents,
		TextEmbeddings:    embeds,
		Height:            d.cfg.Height,
		Width:             d.cfg.Width,
		GuidanceScale:     d.cfg.GuidanceScale,
		Eta:               d.cfg.Eta,
		NumInferenceSteps: d.cfg.NumInferenceSteps,
	})
	if err != nil {
		return fmt.Errorf("frame %d failed: %v", frameIndex, err)
	}

	name := FrameName(frameIndex)
	path := filepath.Join(d.cfg.OutputDir, name)
	if err := os.WriteFile(path, img, 0644); err != nil {
		return fmt.Errorf("failed to write frame '%s': %v", path, err)
	}

	return d.store.AddFrame(ctx, models.FrameRecord{
		Index:      frameIndex,
		File:       name,
		PromptFrom: from.prompt,
		PromptTo:   to.prompt,
		SeedFrom:   from.seed,
		SeedTo:     to.seed,
		T:          t,
	})
}

// FrameName returns the file name for a global frame index.
func FrameName(index int) string {
	return fmt.Sprintf("frame%06d.jpg", index)
}

// FramePattern is the printf-style pattern the encoder consumes.
func FramePattern(outputDir string) string {
	return filepath.Join(outputDir, "frame%06d.jpg")
}
