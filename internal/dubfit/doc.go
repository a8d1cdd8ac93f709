// Package dubfit fits one synthesized speech clip to a target duration.
//
// The fitter drives the speech engine with a rate hint derived from the
// text's word count, measures the result, and applies at most one bounded
// tempo correction. Synthesis failures never propagate: the fitter
// substitutes a silence placeholder so the timeline stays gap-free.
package dubfit
