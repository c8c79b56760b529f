package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/promptmorph/internal/tensor"
)

func TestParseScheduler(t *testing.T) {
	for _, name := range []string{"default", "ddim", "klms"} {
		s, err := ParseScheduler(name)
		require.NoError(t, err)
		assert.Equal(t, Scheduler(name), s)
	}

	_, err := ParseScheduler("euler")
	assert.Error(t, err)
}

func TestMetadataLatentShape(t *testing.T) {
	meta := Metadata{LatentChannels: 4}
	assert.Equal(t, []int{1, 4, 64, 64}, meta.LatentShape(512, 512))
	assert.Equal(t, []int{1, 4, 96, 64}, meta.LatentShape(768, 512))
}

func TestClientLoad(t *testing.T) {
	var got loadRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/load", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Metadata{Model: got.Model, LatentChannels: 4})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "some/model", Scheduler: SchedulerKLMS})
	meta, err := c.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "some/model", got.Model)
	assert.Equal(t, "klms", got.Scheduler)
	assert.Equal(t, "fp16", got.Precision)
	assert.Equal(t, 4, meta.LatentChannels)
}

func TestClientLoadRejectsBadMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Metadata{})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Load(context.Background())
	assert.ErrorContains(t, err, "latent channels")
}

func TestClientEmbedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a cat", req.Prompt)
		json.NewEncoder(w).Encode(tensor.Tensor{Shape: []int{1, 2, 2}, Data: []float32{1, 2, 3, 4}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	emb, err := c.EmbedText(context.Background(), "a cat")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2}, emb.Shape)
	assert.Equal(t, []float32{1, 2, 3, 4}, emb.Data)
}

func TestClientEmbedTextShapeMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tensor.Tensor{Shape: []int{1, 3}, Data: []float32{1}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.EmbedText(context.Background(), "a cat")
	assert.ErrorContains(t, err, "shape")
}

func TestClientGenerate(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/generate", r.URL.Path)
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 512, req.Height)
		assert.InDelta(t, 7.5, req.GuidanceScale, 1e-9)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpeg)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	img, err := c.Generate(context.Background(), GenerateRequest{
		Latents:           tensor.Tensor{Shape: []int{1, 1, 1, 1}, Data: []float32{0}},
		TextEmbeddings:    tensor.Tensor{Shape: []int{1, 1}, Data: []float32{0}},
		Height:            512,
		Width:             512,
		GuidanceScale:     7.5,
		NumInferenceSteps: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, jpeg, img)
}

func TestClientSurfacesServiceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	_, err := c.EmbedText(context.Background(), "a cat")
	assert.ErrorContains(t, err, "CUDA out of memory")

	_, err = c.Generate(context.Background(), GenerateRequest{})
	assert.ErrorContains(t, err, "CUDA out of memory")
}
