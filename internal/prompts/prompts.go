// Package prompts parses the pipe-delimited prompt and seed inputs and
// aligns them into equal-length sequences.
package prompts

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Delimiter separates individual prompts and seeds in the input strings.
const Delimiter = "|"

// Pair couples a prompt with the seed used for its initial noise latent.
type Pair struct {
	Prompt string `json:"prompt"`
	Seed   int    `json:"seed"`
}

// Split breaks a delimited prompt string into trimmed prompts. Empty
// entries are kept so the prompt count always matches the delimiters.
func Split(s string) []string {
	parts := strings.Split(s, Delimiter)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// ParseSeeds parses a delimited seed string. Every token must be a
// non-negative integer literal; anything else is a validation error and
// aborts the run before any generation work.
func ParseSeeds(s string) ([]int, error) {
	tokens := Split(s)
	seeds := make([]int, len(tokens))
	for i, tok := range tokens {
		if !isDigits(tok) {
			return nil, fmt.Errorf("invalid seed %q: please provide integer seeds", tok)
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %v", tok, err)
		}
		seeds[i] = n
	}
	return seeds, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Align returns a seed sequence with exactly one seed per prompt. Extra
// seeds are truncated; missing seeds are filled with fresh random ones,
// appended after the given seeds so their order is preserved.
func Align(prompts []string, seeds []int) []int {
	if len(seeds) >= len(prompts) {
		return seeds[:len(prompts)]
	}

	out := make([]int, 0, len(prompts))
	out = append(out, seeds...)
	for len(out) < len(prompts) {
		out = append(out, RandomSeed())
	}
	return out
}

// RandomSeed returns a random seed with 16 bits of entropy.
func RandomSeed() int {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand read failures are not recoverable here
		panic(fmt.Sprintf("failed to read random seed: %v", err))
	}
	return int(binary.BigEndian.Uint16(b[:]))
}

// Pairs zips aligned prompts and seeds for the run listing.
func Pairs(prompts []string, seeds []int) []Pair {
	pairs := make([]Pair, len(prompts))
	for i := range prompts {
		pairs[i] = Pair{Prompt: prompts[i], Seed: seeds[i]}
	}
	return pairs
}
