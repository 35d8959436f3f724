package store

// Op is a single buffered write. A nil Value with Delete set removes the key.
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

// Batch is an ordered list of writes applied atomically by Store.Commit.
// Later operations on the same key win.
type Batch struct {
	ops []Op
}

func (b *Batch) Put(key string, value []byte) {
	b.ops = append(b.ops, Op{Key: key, Value: value})
}

func (b *Batch) Delete(key string) {
	b.ops = append(b.ops, Op{Key: key, Delete: true})
}

// Ops returns the buffered operations in order.
func (b *Batch) Ops() []Op { return b.ops }

func (b *Batch) Len() int { return len(b.ops) }
