// Command promptmorph renders an interpolation video between a sequence of
// text prompts using an external diffusion generation service and ffmpeg.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"github.com/bdougie/promptmorph/internal/driver"
	"github.com/bdougie/promptmorph/internal/encoder"
	"github.com/bdougie/promptmorph/internal/pipeline"
	"github.com/bdougie/promptmorph/internal/prompts"
	"github.com/bdougie/promptmorph/internal/storage"
)

type cli struct {
	Prompts   string `help:"Input prompts, separate each prompt with '|'." default:"a cat | a dog | a horse"`
	Seeds     string `help:"Seeds, separated with '|' to use a different seed for each prompt. Leave blank to randomize." optional:""`
	Scheduler string `help:"Noise scheduler." enum:"default,ddim,klms" default:"klms"`

	NumInferenceSteps int     `help:"Denoising steps for each generated image (1-500)." default:"50"`
	GuidanceScale     float64 `help:"Scale for classifier-free guidance (1-20)." default:"7.5"`
	NumSteps          int     `help:"Interpolation steps per prompt pair. 3-5 for testing, 60-200 for better results." default:"50"`
	FPS               int     `help:"Frame rate for the video (5-60)." default:"15"`
	Width             int     `help:"Output width in pixels." default:"512"`
	Height            int     `help:"Output height in pixels." default:"512"`
	Eta               float64 `help:"DDIM stochasticity parameter." default:"0"`
	UseLerpForText    bool    `help:"Interpolate text embeddings linearly instead of spherically."`

	FramesDir string `help:"Working directory for rendered frames, recreated each run." default:"output_frames"`
	Output    string `help:"Output video path." default:"out.mp4"`

	BaseURL  string `help:"Base URL of the diffusion generation service." default:"http://localhost:5000"`
	Model    string `help:"Model identifier to load." default:"CompVis/stable-diffusion-v1-4"`
	CacheDir string `help:"Weight cache directory on the generation service." default:"diffusers-cache"`

	ArchiveDSN  string `help:"Optional Postgres DSN for archiving runs." optional:""`
	InitArchive bool   `help:"Create the archive schema before running."`
}

func (c *cli) Validate() error {
	if c.NumInferenceSteps < 1 || c.NumInferenceSteps > 500 {
		return fmt.Errorf("num-inference-steps must be between 1 and 500")
	}
	if c.GuidanceScale < 1 || c.GuidanceScale > 20 {
		return fmt.Errorf("guidance-scale must be between 1 and 20")
	}
	if c.FPS < 5 || c.FPS > 60 {
		return fmt.Errorf("fps must be between 5 and 60")
	}
	if c.NumSteps < 1 {
		return fmt.Errorf("num-steps must be at least 1")
	}
	if c.Width%8 != 0 || c.Height%8 != 0 {
		return fmt.Errorf("width and height must be multiples of 8")
	}
	return nil
}

func main() {
	var flags cli
	kong.Parse(&flags,
		kong.Name("promptmorph"),
		kong.Description("Generate an interpolation video between text prompts."),
	)

	// Configure logger
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05",
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Prompt/seed alignment happens before any model work so malformed
	// input fails fast.
	promptList := prompts.Split(flags.Prompts)

	var seedList []int
	if flags.Seeds == "" {
		logger.Info("Setting random seeds.")
		seedList = prompts.Align(promptList, nil)
	} else {
		parsed, err := prompts.ParseSeeds(flags.Seeds)
		if err != nil {
			log.Fatalf("Invalid seeds: %v", err)
		}
		if len(parsed) < len(promptList) {
			logger.Info("Setting random seeds.")
		}
		seedList = prompts.Align(promptList, parsed)
	}

	logger.Info("Seeds used for prompts are:")
	for _, pair := range prompts.Pairs(promptList, seedList) {
		logger.Info(fmt.Sprintf("%s: %d", pair.Prompt, pair.Seed))
	}

	scheduler, err := pipeline.ParseScheduler(flags.Scheduler)
	if err != nil {
		log.Fatalf("Invalid scheduler: %v", err)
	}

	// The pipeline client owns the loaded model context for the whole run.
	client := pipeline.NewClient(pipeline.Config{
		BaseURL:   flags.BaseURL,
		Model:     flags.Model,
		CacheDir:  flags.CacheDir,
		Scheduler: scheduler,
		Logger:    logger,
	})

	meta, err := client.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load pipeline: %v", err)
	}

	store := storage.Storage(storage.NewStorage(flags.FramesDir))
	if flags.ArchiveDSN != "" {
		if flags.InitArchive {
			if err := storage.InitSchema(ctx, flags.ArchiveDSN); err != nil {
				log.Fatalf("Failed to initialize archive schema: %v", err)
			}
		}
		pg, err := storage.NewPostgresStorage(ctx, flags.ArchiveDSN, flags.Output)
		if err != nil {
			log.Fatalf("Failed to connect to archive database: %v", err)
		}
		defer pg.Close()
		store = storage.Multi(store, pg)
	}

	d := driver.New(client, meta, store, logger, driver.Config{
		OutputDir:         flags.FramesDir,
		Height:            flags.Height,
		Width:             flags.Width,
		GuidanceScale:     flags.GuidanceScale,
		Eta:               flags.Eta,
		NumInferenceSteps: flags.NumInferenceSteps,
		NumSteps:          flags.NumSteps,
		UseLerpForText:    flags.UseLerpForText,
	})

	frames, err := d.Run(ctx, promptList, seedList)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Process interrupted")
			os.Exit(1)
		}
		log.Printf("Error generating frames: %v", err)
		os.Exit(1)
	}

	logger.Info("Rendered all frames", "count", frames, "dir", flags.FramesDir)

	enc := encoder.New()
	if err := enc.Encode(driver.FramePattern(flags.FramesDir), flags.Output, flags.FPS); err != nil {
		if ctx.Err() != nil {
			fmt.Println("Process interrupted")
			os.Exit(1)
		}
		log.Printf("Error encoding video: %v", err)
		os.Exit(1)
	}

	logger.Info("Video written", "path", flags.Output, "fps", flags.FPS)
}
