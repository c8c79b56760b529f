package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/bdougie/promptmorph/internal/models"
)

// Dimensionality of the archived prompt embeddings. Text embeddings are
// mean-pooled over their token axis down to the hidden size before storage.
const embeddingDims = 768

// PromptSearchResult is one hit from a similar-prompt lookup.
type PromptSearchResult struct {
	RunName    string
	Prompt     string
	Seed       int
	Similarity float64
}

// PostgresStorage archives runs, their prompt embeddings and their frame
// records in PostgreSQL so past interpolations can be searched by prompt.
type PostgresStorage struct {
	pool    *pgxpool.Pool
	runID   int
	runName string
}

// NewPostgresStorage connects to the archive database and registers a new
// run row that the prompt and frame records will hang off.
func NewPostgresStorage(ctx context.Context, connString, runName string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &PostgresStorage{
		pool:    pool,
		runName: runName,
	}

	var id int
	err = pool.QueryRow(ctx,
		"INSERT INTO runs (name, created_at) VALUES ($1, $2) RETURNING id",
		runName, time.Now()).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create run entry: %w", err)
	}
	storage.runID = id

	return storage, nil
}

// Close closes the database connection
func (s *PostgresStorage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// AddPrompt stores an anchor prompt with its seed and mean-pooled embedding
func (s *PostgresStorage) AddPrompt(ctx context.Context, prompt string, seed int, embedding []float32) error {
	pooled := poolEmbedding(embedding, embeddingDims)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_prompts
        (run_id, prompt, seed, embedding, created_at)
        VALUES ($1, $2, $3, $4, $5)`,
		s.runID, prompt, seed, pgvector.NewVector(pooled), time.Now())
	if err != nil {
		return fmt.Errorf("failed to store prompt: %w", err)
	}
	return nil
}

// AddFrame stores a frame record for the current run
func (s *PostgresStorage) AddFrame(ctx context.Context, rec models.FrameRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_frames
        (run_id, frame_index, frame_path, prompt_from, prompt_to, t, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.runID, rec.Index, rec.File, rec.PromptFrom, rec.PromptTo, rec.T, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store frame record: %w", err)
	}
	return nil
}

// Flush implements the Storage interface - no-op for Postgres as we save immediately
func (s *PostgresStorage) Flush() error {
	return nil
}

// poolEmbedding mean-pools a flattened (tokens x dims) embedding down to a
// fixed dims-wide vector. Shorter inputs are zero-padded.
func poolEmbedding(embedding []float32, dims int) []float32 {
	pooled := make([]float32, dims)
	if len(embedding) == 0 {
		return pooled
	}

	rows := 0
	for i := 0; i < len(embedding); i += dims {
		end := i + dims
		if end > len(embedding) {
			end = len(embedding)
		}
		for j, v := range embedding[i:end] {
			pooled[j] += v
		}
		rows++
	}
	for i := range pooled {
		pooled[i] /= float32(rows)
	}
	return pooled
}

// SearchSimilarPrompts finds archived prompts whose embeddings are closest
// to the given (already pooled or raw) embedding.
func (s *PostgresStorage) SearchSimilarPrompts(ctx context.Context, embedding []float32, limit int) ([]PromptSearchResult, error) {
	pooled := poolEmbedding(embedding, embeddingDims)

	rows, err := s.pool.Query(ctx,
		`SELECT r.name, p.prompt, p.seed,
        1 - (p.embedding <=> $1) AS similarity
        FROM run_prompts p
        JOIN runs r ON p.run_id = r.id
        ORDER BY p.embedding <=> $1
        LIMIT $2`,
		pgvector.NewVector(pooled), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar prompts: %w", err)
	}
	defer rows.Close()

	var results []PromptSearchResult
	for rows.Next() {
		var result PromptSearchResult
		if err := rows.Scan(&result.RunName, &result.Prompt,
			&result.Seed, &result.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search results: %w", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// InitSchema creates the database schema if it doesn't exist
func InitSchema(ctx context.Context, connString string) error {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	// Check if vector extension exists
	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for vector extension: %w", err)
	}

	if !exists {
		_, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
		if err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
	}

	// Create tables
	_, err = conn.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS runs (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        );

        CREATE TABLE IF NOT EXISTS run_prompts (
            id SERIAL PRIMARY KEY,
            run_id INTEGER REFERENCES runs(id) ON DELETE CASCADE,
            prompt TEXT NOT NULL,
            seed INTEGER NOT NULL,
            embedding vector(%d),
            created_at TIMESTAMPTZ NOT NULL
        );

        CREATE TABLE IF NOT EXISTS run_frames (
            id SERIAL PRIMARY KEY,
            run_id INTEGER REFERENCES runs(id) ON DELETE CASCADE,
            frame_index INTEGER NOT NULL,
            frame_path VARCHAR(255) NOT NULL,
            prompt_from TEXT NOT NULL,
            prompt_to TEXT NOT NULL,
            t DOUBLE PRECISION NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            UNIQUE(run_id, frame_index)
        );
    `, embeddingDims))
	if err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	// Create indexes
	_, err = conn.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS idx_run_prompts_run_id ON run_prompts(run_id);
        CREATE INDEX IF NOT EXISTS idx_run_frames_run_id ON run_frames(run_id);
        CREATE INDEX IF NOT EXISTS idx_prompt_embedding ON run_prompts USING ivfflat (embedding vector_l2_ops) WITH (lists = 100);
    `)
	if err != nil {
		return fmt.Errorf("failed to create database indexes: %w", err)
	}

	return nil
}
