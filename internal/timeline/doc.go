// Package timeline holds the pure interval arithmetic behind slice planning:
// merging speech turns into continuous intervals, applying symmetric padding,
// clamping to the waveform, and sweeping overlapping spans into a disjoint,
// deterministically indexed slice plan.
package timeline
