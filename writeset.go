package stm

// writeEntry is spec.md §3's write-buffer entry: (address, buffered
// value, hash-link), plus the write-through pre-image when one has been
// captured (see SPEC_FULL.md Open Question 2).
type writeEntry struct {
	addr     *Var
	value    uint64
	hasPre   bool
	preimage uint64
	hashNext *writeEntry
}

// writeSet is the per-transaction write buffer: a slab chain for
// iteration (write-back/undo, spec.md §4.3) plus, once the entry count
// crosses nrwBeforeHash, a chained hash index for O(1) lookup. The hash
// table's target size (tx.whashSize) is an adaptive selector that
// survives across attempts; the table itself is rebuilt fresh each time
// an attempt crosses the threshold.
type writeSet struct {
	first, last *writeSlab
	freeSlabs   *writeSlab

	count int
	bloom uint64

	hashTable []*writeEntry
	hashMask  int
}

// bloomBit computes the membership hash spec.md §3 defines for the
// write-buffer's bloom summary: bits are only ever set, never cleared,
// during a transaction.
func bloomBit(addr uintptr) uint64 {
	shifted := (addr >> 3) ^ (addr >> 5)
	return uint64(1) << (shifted & 63)
}

// hashIndex selects one of six shift-based bucket hashes according to the
// transaction's current adaptive selector (spec.md §4.3).
func (tx *Tx) hashIndex(addr uintptr) int {
	var h uintptr
	switch tx.adaptiveHash % 6 {
	case 0:
		h = addr >> 8
	case 1:
		h = addr >> 6
	case 2:
		h = addr >> 4
	case 3:
		h = addr >> 2
	case 4:
		h = (addr >> 16) ^ (addr >> 5)
	default:
		h = (addr >> 12) ^ (addr >> 2)
	}
	return int(h) & tx.writes.hashMask
}

// wbufBuildHash is run exactly once per attempt, the moment the entry
// count crosses nrwBeforeHash: it allocates a hash table sized to the
// transaction's current adaptive selector and rehashes every entry
// inserted so far.
func (tx *Tx) wbufBuildHash() {
	ws := &tx.writes
	ws.hashTable = make([]*writeEntry, tx.whashSize)
	ws.hashMask = tx.whashSize - 1
	for s := ws.first; s != nil; s = s.next {
		for i := 0; i < s.size; i++ {
			e := &s.entries[i]
			idx := tx.hashIndex(e.addr.addr())
			if ws.hashTable[idx] != nil {
				tx.whashCollisions++
			}
			e.hashNext = ws.hashTable[idx]
			ws.hashTable[idx] = e
		}
	}
}

// writeAppend stores a brand-new entry for addr at the tail of the slab
// chain, growing the chain if the current tail slab is full.
func (tx *Tx) writeAppend(addr *Var) *writeEntry {
	ws := &tx.writes
	switch {
	case ws.first == nil:
		ws.first = tx.allocSlab()
		ws.last = ws.first
	case ws.last.size == nrWritesInSlab:
		s := tx.allocSlab()
		ws.last.next = s
		ws.last = s
	}
	e := &ws.last.entries[ws.last.size]
	ws.last.size++
	*e = writeEntry{addr: addr}
	ws.count++
	return e
}

// writeLookupOrInsert implements spec.md §4.3's lookup-or-insert: a hit
// returns the existing entry (so a write-through pre-image, once
// captured, is never clobbered by a later write to the same address --
// SPEC_FULL.md Open Question 2). A miss with allocate=false reports
// absence without mutating the buffer, used by Load's read-your-writes
// check.
func (tx *Tx) writeLookupOrInsert(v *Var, allocate bool) (entry *writeEntry, existed bool) {
	ws := &tx.writes
	addr := v.addr()
	bit := bloomBit(addr)
	if allocate {
		ws.bloom |= bit
	} else if ws.bloom&bit == 0 {
		return nil, false
	}

	if ws.count <= nrwBeforeHash {
		for s := ws.first; s != nil; s = s.next {
			for i := 0; i < s.size; i++ {
				if s.entries[i].addr == v {
					return &s.entries[i], true
				}
			}
		}
		if !allocate {
			return nil, false
		}
		e := tx.writeAppend(v)
		if ws.count == nrwBeforeHash+1 {
			tx.wbufBuildHash()
		}
		return e, false
	}

	idx := tx.hashIndex(addr)
	for e := ws.hashTable[idx]; e != nil; e = e.hashNext {
		if e.addr == v {
			return e, true
		}
	}
	if !allocate {
		return nil, false
	}
	e := tx.writeAppend(v)
	if ws.hashTable[idx] != nil {
		tx.whashCollisions++
	}
	e.hashNext = ws.hashTable[idx]
	ws.hashTable[idx] = e
	return e, false
}

// writeBack copies every buffered value to its address -- the write-back
// commit path. No lock interaction is needed here: every covered lock is
// already held.
func (tx *Tx) writeBack() {
	for s := tx.writes.first; s != nil; s = s.next {
		for i := 0; i < s.size; i++ {
			s.entries[i].addr.poke(s.entries[i].value)
		}
	}
}

// writeUndo restores every entry's pre-image -- the write-through abort
// path. Entries without a captured pre-image were never written to
// memory directly (e.g. one inserted by a Store whose lock acquisition
// then ended the attempt) and are left alone.
func (tx *Tx) writeUndo() {
	for s := tx.writes.first; s != nil; s = s.next {
		for i := 0; i < s.size; i++ {
			e := &s.entries[i]
			if e.hasPre {
				e.addr.poke(e.preimage)
			}
		}
	}
}

// writeReset drops every slab but the first (cleared to size 0) back onto
// this transaction's slab free list, per spec.md §4.3's reset rule. The
// hash table and bloom summary are simply discarded; they are rebuilt
// from scratch the next time an attempt needs them.
func (tx *Tx) writeReset() {
	ws := &tx.writes
	if ws.first != nil {
		if ws.first.next != nil {
			tail := ws.first.next
			ws.first.next = nil
			last := tail
			for last.next != nil {
				last = last.next
			}
			last.next = ws.freeSlabs
			ws.freeSlabs = tail
		}
		ws.first.size = 0
	}
	ws.last = ws.first
	ws.count = 0
	ws.bloom = 0
	ws.hashTable = nil
	ws.hashMask = 0
}
