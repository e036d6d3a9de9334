package oplock

// fileState is the legacy oplock state for one inode (keyed by the
// backend's stable inode/path key, shared by every open of that file
// across every connection). Exclusive and Batch are single-holder;
// LevelII is shared by any number of readers at once.
type fileState struct {
	exclusive *Holder // holder of Exclusive or Batch, nil if none
	exclLevel Level   // LevelExclusive or LevelBatch, valid iff exclusive != nil

	readers map[uint64]*Holder // keyed by holder.ID.Volatile

	breaking     bool
	breakToLevel Level
	waiter       *breakWaiter
}
