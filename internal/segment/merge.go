package segment

// Merge fuses consecutive short raw segments to avoid caption flicker. It
// folds left to right: while the accumulator is shorter than MinSegmentMS
// and absorbing the next segment keeps it within MaxMergedMS, the segments
// fuse; otherwise the accumulator is emitted and the next segment starts a
// new one. Merge never splits, so a single raw segment already longer than
// the ceiling passes through unchanged, and the first or last segment of a
// transcript may legitimately stay shorter than MinSegmentMS.
//
// All duration math stays in milliseconds; conversion to seconds happens
// only when final segments are built.
func Merge(segs []RawSegment, opts Options) []RawSegment {
	if len(segs) == 0 {
		return nil
	}

	maxMerged := opts.MaxMergedMS
	if maxMerged == 0 {
		maxMerged = opts.MaxSegmentMS
	}

	var merged []RawSegment
	acc := segs[0]
	for _, next := range segs[1:] {
		if acc.DurationMS() < opts.MinSegmentMS && next.EndMS()-acc.StartMS() <= maxMerged {
			acc.Spans = append(acc.Spans, next.Spans...)
			continue
		}
		merged = append(merged, acc)
		acc = next
	}
	return append(merged, acc)
}
