// Package history exposes a stable, dependency-light API over
// internal/history for callers outside the simulator package,
// mirroring the teacher's pkg/modbusdb Client/DTO/converter split so
// that the GORM row type never leaks past the internal package
// boundary.
package history

import (
	"context"
	"time"

	internalhistory "coupler-sim/internal/history"
)

// Client exposes a stable API for recording and querying channel write
// history.
type Client struct {
	store *internalhistory.Store
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string) (*Client, error) {
	s, err := internalhistory.Open(path)
	if err != nil {
		return nil, err
	}
	return &Client{store: s}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.store.Close() }

// Event is the DTO for one recorded channel write.
type Event struct {
	ModulePosition int
	Channel        int
	SourceTag      string
	Value          float64
	BehaviorID     string
	Timestamp      time.Time
}

func toRow(e Event) *internalhistory.WriteEvent {
	return &internalhistory.WriteEvent{
		ModulePosition: e.ModulePosition,
		Channel:        e.Channel,
		SourceTag:      e.SourceTag,
		Value:          e.Value,
		BehaviorID:     e.BehaviorID,
	}
}

func fromRow(r internalhistory.WriteEvent) Event {
	return Event{
		ModulePosition: r.ModulePosition,
		Channel:        r.Channel,
		SourceTag:      r.SourceTag,
		Value:          r.Value,
		BehaviorID:     r.BehaviorID,
		Timestamp:      r.Timestamp,
	}
}

// Record stores one channel write event.
func (c *Client) Record(ctx context.Context, e Event) error {
	return c.store.Record(ctx, toRow(e))
}

// Recent returns the most recent events for one channel, newest first.
func (c *Client) Recent(ctx context.Context, position, channel, limit int) ([]Event, error) {
	rows, err := c.store.Recent(ctx, position, channel, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Event, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}
