// Package store provides the document store registry and shared SQL plumbing
// for doctable's storage backends.
//
// This package contains the public contract that all document stores must implement.
// Concrete store implementations are in pkg/stores/ subdirectories.
package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/tidwall/gjson"
)

type (
	// Store is an alias for core.Store.
	Store = core.Store

	// Config is an alias for core.StoreConfig.
	Config = core.StoreConfig

	// Document is an alias for core.Document.
	Document = core.Document
)

var (
	// ErrTableNotFound is returned when scanning a table that does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrNotConnected is returned by store operations before Connect succeeded.
	ErrNotConnected = errors.New("store connection not established")
)

// IDField is the document field holding a caller supplied id.
const IDField = "_id"

// AssignIDs fills missing document ids in place. The body's _id field wins,
// otherwise a random UUID is generated.
func AssignIDs(docs []Document) {
	for i := range docs {
		if docs[i].ID != "" {
			continue
		}
		if id := gjson.GetBytes(docs[i].Body, IDField); id.Exists() && id.String() != "" {
			docs[i].ID = id.String()
			continue
		}
		docs[i].ID = uuid.NewString()
	}
}
