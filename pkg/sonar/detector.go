package sonar

// ChangeDetector decides ping by ping whether a transmit signal has to be
// synthesized again. It is a value: Next returns the detector to use for
// the following ping and leaves the receiver untouched.
type ChangeDetector struct {
	prev  Snapshot
	valid bool
}

// Next reports whether cur needs a new transmit signal: always for the first
// ping, otherwise when any field differs from the previous snapshot. The
// returned detector remembers cur.
func (d ChangeDetector) Next(cur Snapshot) (bool, ChangeDetector) {
	recompute := !d.valid || d.prev.differs(cur)
	return recompute, ChangeDetector{prev: cur, valid: true}
}

// DetectChanges runs a detector over snaps in order.
func DetectChanges(snaps []Snapshot) []bool {
	ret := make([]bool, len(snaps))
	var d ChangeDetector
	for i, s := range snaps {
		ret[i], d = d.Next(s)
	}
	return ret
}
