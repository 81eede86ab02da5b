package datasource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/store"
	"github.com/tidwall/gjson"
)

// maxSeedLine bounds the size of a single NDJSON document.
const maxSeedLine = 16 << 20

// Seed loads documents from r into table and returns how many were
// inserted. The input is either a JSON array of objects or newline
// delimited JSON objects. Nothing is inserted when any document is invalid.
func (s *Service) Seed(ctx context.Context, table string, r io.Reader) (int, error) {
	if err := store.ValidateTableName(table); err != nil {
		return 0, err
	}
	docs, err := ReadDocuments(r)
	if err != nil {
		return 0, err
	}

	st, err := s.connect(ctx)
	if err != nil {
		return 0, err
	}
	store.AssignIDs(docs)
	if err := st.Insert(ctx, table, docs); err != nil {
		return 0, fmt.Errorf("seed table %q: %w", table, err)
	}
	s.logger.Info("seeded table", "table", table, "documents", len(docs))
	return len(docs), nil
}

// ReadDocuments decodes a JSON array of objects or NDJSON.
func ReadDocuments(r io.Reader) ([]core.Document, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		data, err := io.ReadAll(br)
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("invalid JSON array")
		}
		var docs []core.Document
		var docErr error
		gjson.ParseBytes(data).ForEach(func(_, v gjson.Result) bool {
			if !v.IsObject() {
				docErr = fmt.Errorf("document %d is not a JSON object", len(docs)+1)
				return false
			}
			docs = append(docs, core.Document{Body: json.RawMessage(v.Raw)})
			return true
		})
		return docs, docErr
	}

	var docs []core.Document
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), maxSeedLine)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
			return nil, fmt.Errorf("line %d: not a JSON object", line)
		}
		docs = append(docs, core.Document{Body: json.RawMessage(bytes.Clone(raw))})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// peekNonSpace skips leading whitespace and returns the next byte without consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
