package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/doctable/pkg/store"
)

func init() {
	store.Register("postgres", func(logger *slog.Logger) store.Store { return New(logger) })
}
