package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/doctable/pkg/store"
)

func init() {
	store.Register("sqlite", func(logger *slog.Logger) store.Store { return New(logger) })
}
