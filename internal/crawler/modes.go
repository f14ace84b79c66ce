package crawler

import (
	"time"

	"clearcrawl/internal/types"
)

// settings holds the limits derived from a CrawlConfig and its mode.
// Resolution happens once at construction, never per call.
type settings struct {
	linkLimit int
	maxDepth  int
	delayMin  time.Duration
	delayMax  time.Duration
}

// resolveMode applies mode-specific adjustments to the configured limits.
//
//	exploratory: double the link limit (capped at 20), short delays
//	deep_dive:   two extra depth levels (capped at 10), medium delays
//	stealth:     configured limits, long delays
//	default:     configured limits, medium delays
func resolveMode(cfg types.CrawlConfig) settings {
	s := settings{
		linkLimit: cfg.LinkLimit,
		maxDepth:  cfg.MaxDepth,
	}

	switch cfg.Mode {
	case types.ModeExploratory:
		s.linkLimit = min(cfg.LinkLimit*2, 20)
		s.delayMin, s.delayMax = 1*time.Second, 3*time.Second
	case types.ModeDeepDive:
		s.maxDepth = min(cfg.MaxDepth+2, 10)
		s.delayMin, s.delayMax = 2*time.Second, 4*time.Second
	case types.ModeStealth:
		s.delayMin, s.delayMax = 3*time.Second, 7*time.Second
	default:
		s.delayMin, s.delayMax = 2*time.Second, 4*time.Second
	}

	return s
}
