package heap

// runFinalizers calls Finalize on every dead cell carrying one, via its
// registered Descriptor. Callers must invoke this only after
// clearDeadWeakRefs/rewriteLiveWeakRefs have already run for the same
// collection, so a finalizer can never observe a target through a weak
// slot that this same collection is about to invalidate (the Open
// Question resolution).
func runFinalizers(dead []Cell) {
	for _, c := range dead {
		hdr := c.GCHeader()
		if !hdr.hasFinal {
			continue
		}
		d := DescriptorFor(c.CellKind())
		if d == nil || d.Finalize == nil {
			continue
		}
		d.Finalize(c)
	}
}
