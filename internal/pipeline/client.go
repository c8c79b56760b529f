package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/bdougie/promptmorph/internal/tensor"
)

// Config holds the connection and model settings for the generation service.
type Config struct {
	// BaseURL of the diffusion service, e.g. http://localhost:5000.
	BaseURL string
	// Model identifier passed to the service's load call.
	Model string
	// CacheDir is where the service caches downloaded weights.
	CacheDir string
	// Precision of the loaded weights, e.g. fp16.
	Precision string
	// Scheduler selects the noise schedule for this run.
	Scheduler Scheduler

	Logger *slog.Logger
}

// Client talks to the generation service over HTTP. It implements Pipeline.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a pipeline client. The underlying HTTP client has no
// timeout: a single generation call can legitimately run for minutes.
func NewClient(cfg Config) *Client {
	if cfg.Precision == "" {
		cfg.Precision = "fp16"
	}
	if cfg.Scheduler == "" {
		cfg.Scheduler = SchedulerDefault
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
	}
}

type loadRequest struct {
	Model     string `json:"model"`
	CacheDir  string `json:"cache_dir,omitempty"`
	Precision string `json:"precision,omitempty"`
	Scheduler string `json:"scheduler"`
}

// Load asks the service to load the model into memory and select the
// configured scheduler, so the run's frame generations reuse one context.
func (c *Client) Load(ctx context.Context) (Metadata, error) {
	c.logger.Info("loading pipeline", "model", c.cfg.Model, "scheduler", string(c.cfg.Scheduler))

	var meta Metadata
	err := c.postJSON(ctx, "/v1/load", loadRequest{
		Model:     c.cfg.Model,
		CacheDir:  c.cfg.CacheDir,
		Precision: c.cfg.Precision,
		Scheduler: string(c.cfg.Scheduler),
	}, &meta)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "loading pipeline")
	}
	if meta.LatentChannels <= 0 {
		return Metadata{}, errors.Errorf("pipeline reported invalid latent channels %d", meta.LatentChannels)
	}
	return meta, nil
}

type embedRequest struct {
	Prompt string `json:"prompt"`
}

// EmbedText encodes a prompt through the service's text encoder.
func (c *Client) EmbedText(ctx context.Context, prompt string) (tensor.Tensor, error) {
	var out tensor.Tensor
	err := c.postJSON(ctx, "/v1/embed", embedRequest{Prompt: prompt}, &out)
	if err != nil {
		return tensor.Tensor{}, errors.Wrapf(err, "embedding prompt %q", prompt)
	}
	if len(out.Data) != out.Len() {
		return tensor.Tensor{}, errors.Errorf("embedding shape %v does not match %d values", out.Shape, len(out.Data))
	}
	return out, nil
}

// Generate renders one frame. The response body is the raw encoded image.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encoding generate request")
	}

	resp, err := c.post(ctx, "/v1/generate", body)
	if err != nil {
		return nil, errors.Wrap(err, "generate call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Errorf("generation service returned %s: %s", resp.Status, msg)
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading generated image")
	}
	if len(img) == 0 {
		return nil, errors.New("generation service returned an empty image")
	}
	return img, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encoding request")
	}

	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("generation service returned %s: %s", resp.Status, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}
