package extract

import (
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/llm"
	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/profile"
)

// Source records which extraction path produced a result.
type Source string

const (
	SourceModel    Source = "llm"
	SourceFallback Source = "fallback"
)

// Result is the outcome of one extraction attempt. Cost is the monetary
// estimate for the tokens spent; zero on the fallback path.
type Result struct {
	Data   *profile.ProfileData
	Usage  llm.Usage
	Cost   float64
	Source Source
}
