package sqlite

import (
	"fmt"
	"net/url"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds SQLite-specific configuration.
// Parsed from store.Config.Params using mapstructure.
type Params struct {
	// BusyTimeout in milliseconds before a locked database returns SQLITE_BUSY.
	BusyTimeout int `mapstructure:"busy_timeout"`

	// JournalMode, e.g. "WAL" or "DELETE". Ignored for in-memory databases.
	JournalMode string `mapstructure:"journal_mode"`
}

func parseParams(raw map[string]any) (Params, error) {
	p := Params{BusyTimeout: 5000, JournalMode: "WAL"}
	if len(raw) == 0 {
		return p, nil
	}
	if err := mapstructure.Decode(raw, &p); err != nil {
		return Params{}, fmt.Errorf("invalid sqlite params: %w", err)
	}
	return p, nil
}

// buildDSN renders a modernc.org/sqlite DSN with pragmas applied on every connection.
func buildDSN(path string, p Params) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	if p.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", p.BusyTimeout))
	}
	if p.JournalMode != "" && !isMemory(path) {
		q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", p.JournalMode))
	}
	return "file:" + path + "?" + q.Encode()
}

func isMemory(path string) bool {
	return path == ":memory:"
}
