// Package core defines the shared language of the doctable system.
//
// This package contains:
//   - Query entities (QueryTarget, QueryRequest, Range)
//   - Result entities (TimeSeries, RawDocuments, Annotation, DatasourceStatus)
//   - Service interfaces (Store)
//   - Store configuration (StoreConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
