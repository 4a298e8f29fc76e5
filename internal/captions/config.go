package captions

import "videogen/internal/config"

// OptionsFromConfig maps the [captions] section onto composer options.
// Zero values keep the production defaults.
func OptionsFromConfig(c config.Captions) Options {
	opts := DefaultOptions()
	if c.GapThreshold > 0 {
		opts.GapThreshold = c.GapThreshold
	}
	if c.MaxWeightedChars > 0 {
		opts.MaxWeightedChars = c.MaxWeightedChars
	}
	if c.MaxLines > 0 {
		opts.MaxLines = c.MaxLines
	}
	if len(c.EscalationFactors) > 0 {
		opts.EscalationFactors = append([]float64(nil), c.EscalationFactors...)
	}
	if c.MinLineDuration > 0 {
		opts.MinLineDuration = c.MinLineDuration
	}
	if c.DefaultWordDuration > 0 {
		opts.DefaultWordDuration = c.DefaultWordDuration
	}
	return opts
}
