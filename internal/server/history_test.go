package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestHistory_Append_StampsDate(t *testing.T) {
	req := require.New(t)
	history := NewHistory(fixedClock(time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)), nil)

	message := history.Append("alice", "hi")

	req.Equal(HeaderNewMessage, message.Header)
	req.Equal("alice", message.Username)
	req.Equal("hi", message.Text)
	req.Equal("3/7/2024", message.Date)
}

func TestHistory_Append_PreservesOrder(t *testing.T) {
	req := require.New(t)
	history := NewHistory(fixedClock(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)), nil)

	history.Append("alice", "first")
	history.Append("bob", "second")
	history.Append("alice", "third")

	snapshot := history.Snapshot()
	req.Len(snapshot, 3)
	req.Equal("first", snapshot[0].Text)
	req.Equal("second", snapshot[1].Text)
	req.Equal("third", snapshot[2].Text)
	req.Equal(3, history.Len())
}

func TestHistory_Snapshot_IsACopy(t *testing.T) {
	req := require.New(t)
	history := NewHistory(nil, nil)

	history.Append("alice", "hi")

	snapshot := history.Snapshot()
	snapshot[0].Text = "tampered"

	req.Equal("hi", history.Snapshot()[0].Text)
}

func TestHistory_EmptySnapshot(t *testing.T) {
	req := require.New(t)
	history := NewHistory(nil, nil)

	req.Empty(history.Snapshot())
	req.Equal(0, history.Len())
}

func TestHistory_CustomFormatter(t *testing.T) {
	req := require.New(t)
	history := NewHistory(
		fixedClock(time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)),
		func(t time.Time) string { return t.Format(time.RFC3339) },
	)

	message := history.Append("alice", "hi")
	req.Equal("2024-03-07T15:04:05Z", message.Date)
}
