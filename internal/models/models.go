package models

// FrameRecord describes one rendered frame of the interpolation video
type FrameRecord struct {
	Index      int     `json:"index"`
	File       string  `json:"file"`
	PromptFrom string  `json:"prompt_from"`
	PromptTo   string  `json:"prompt_to"`
	SeedFrom   int     `json:"seed_from"`
	SeedTo     int     `json:"seed_to"`
	T          float64 `json:"t"`
}
