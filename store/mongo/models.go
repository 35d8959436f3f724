package mongo

import (
	"github.com/xraph/grove"

	"github.com/xraph/vesting/store"
)

// recordModel is one stored key. Seq is assigned on first insert and kept
// on overwrite, which gives Scan its insertion order.
type recordModel struct {
	grove.BaseModel `grove:"table:vesting_kv"`

	Key        string `grove:"id,pk"      bson:"_id"`
	Collection string `grove:"collection" bson:"collection"`
	Seq        int64  `grove:"seq"        bson:"seq"`
	Value      []byte `grove:"value"      bson:"value"`
}

func (m *recordModel) entry() store.Entry {
	return store.Entry{Key: m.Key, Value: m.Value}
}

// counterModel holds the next insertion sequence.
type counterModel struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}
