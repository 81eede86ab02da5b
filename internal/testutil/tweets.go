package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/stores/memory"
)

// Interval sizes in milliseconds.
const (
	Second = int64(1000)
	Minute = 60 * Second
	Hour   = 60 * Minute
	Day    = 24 * Hour
	Year   = 365 * Day
)

// Tweet is a fixture document.
type Tweet struct {
	ID      string `json:"_id"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Time    string `json:"time"`
	Likes   int    `json:"likes"`
}

// TweetsTable is the table name Tweets are seeded into.
const TweetsTable = "tweets"

// Tweets returns eight time ordered tweets. The last four were published
// within a single day, so a one day interval yields five buckets.
func Tweets() []Tweet {
	return []Tweet{
		{Author: "user1", Content: "tag1", Time: "2012-04-24T22:35:28.981Z", Likes: 1},
		{Author: "user2", Content: "tag2", Time: "2013-05-24T22:35:28.981Z", Likes: 2},
		{Author: "user3", Content: "tag1", Time: "2014-01-01T22:35:28.981Z", Likes: 3},
		{Author: "usertobequeried", Content: "tag1", Time: "2017-01-03T22:35:28.981Z", Likes: 4},
		{Author: "user5", Content: "tag3", Time: "2018-04-05T22:35:28.981Z", Likes: 5},
		{Author: "user6", Content: "tag3", Time: "2018-04-05T22:36:28.981Z", Likes: 6},
		{Author: "user7", Content: "tag3", Time: "2018-04-05T23:02:28.981Z", Likes: 7},
		{Author: "user8", Content: "tag3", Time: "2018-04-06T00:35:28.981Z", Likes: 8},
	}
}

// TweetDocuments encodes Tweets as store documents with ids tweet-1..tweet-8.
func TweetDocuments(t testing.TB) []core.Document {
	t.Helper()
	tweets := Tweets()
	docs := make([]core.Document, len(tweets))
	for i, tw := range tweets {
		tw.ID = fmt.Sprintf("tweet-%d", i+1)
		body, err := json.Marshal(tw)
		if err != nil {
			t.Fatalf("marshal tweet: %v", err)
		}
		docs[i] = core.Document{ID: tw.ID, Body: body}
	}
	return docs
}

// TweetTime parses the time of the i-th tweet.
func TweetTime(t testing.TB, i int) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, Tweets()[i].Time)
	if err != nil {
		t.Fatalf("parse tweet time: %v", err)
	}
	return ts
}

// NewTweetStore returns a connected memory store holding the tweets table.
func NewTweetStore(t testing.TB) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New(nil)
	if err := s.Connect(ctx, core.StoreConfig{Type: "memory"}); err != nil {
		t.Fatalf("connect memory store: %v", err)
	}
	if err := s.Insert(ctx, TweetsTable, TweetDocuments(t)); err != nil {
		t.Fatalf("seed tweets: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
