package models

// ImportResult reports what an import added. Each set keeps first-insert order
// and ignores repeats.
type ImportResult struct {
	BatchID string
	Skipped int
	Errors  []error

	txIDs    []uint
	groupIDs []int
	tags     []string

	seenTx    map[uint]struct{}
	seenGroup map[int]struct{}
	seenTag   map[string]struct{}
}

func (r *ImportResult) AddTransaction(id uint) {
	if r.seenTx == nil {
		r.seenTx = make(map[uint]struct{})
	}
	if _, ok := r.seenTx[id]; ok {
		return
	}
	r.seenTx[id] = struct{}{}
	r.txIDs = append(r.txIDs, id)
}

func (r *ImportResult) AddGroup(id int) {
	if r.seenGroup == nil {
		r.seenGroup = make(map[int]struct{})
	}
	if _, ok := r.seenGroup[id]; ok {
		return
	}
	r.seenGroup[id] = struct{}{}
	r.groupIDs = append(r.groupIDs, id)
}

func (r *ImportResult) AddTag(tag string) {
	if tag == "" {
		return
	}
	if r.seenTag == nil {
		r.seenTag = make(map[string]struct{})
	}
	if _, ok := r.seenTag[tag]; ok {
		return
	}
	r.seenTag[tag] = struct{}{}
	r.tags = append(r.tags, tag)
}

func (r *ImportResult) NewTransactionIDs() []uint { return append([]uint(nil), r.txIDs...) }
func (r *ImportResult) NewGroupIDs() []int        { return append([]int(nil), r.groupIDs...) }
func (r *ImportResult) NewTags() []string         { return append([]string(nil), r.tags...) }

// IsEmpty reports whether nothing was added.
func (r *ImportResult) IsEmpty() bool {
	return len(r.txIDs) == 0 && len(r.groupIDs) == 0 && len(r.tags) == 0
}
