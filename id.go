package vesting

import "github.com/xraph/vesting/id"

// ID identifies in-flight claims, payments and history events.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
