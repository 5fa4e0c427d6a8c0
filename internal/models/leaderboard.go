package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LeaderboardEntry is one row of the top-N query
type LeaderboardEntry struct {
	Username string
	Wins     int
}

// Leaderboard is ordered highest wins first. It encodes as a JSON object
// mapping username to wins with keys kept in rank order.
type Leaderboard []LeaderboardEntry

func (l Leaderboard) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Username)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", entry.Wins)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object while keeping the order of its keys
func (l *Leaderboard) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("leaderboard: expected object, got %v", tok)
	}

	entries := Leaderboard{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		username, ok := tok.(string)
		if !ok {
			return fmt.Errorf("leaderboard: expected string key, got %v", tok)
		}
		var wins int
		if err := dec.Decode(&wins); err != nil {
			return fmt.Errorf("leaderboard: wins for %q: %w", username, err)
		}
		entries = append(entries, LeaderboardEntry{Username: username, Wins: wins})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = entries
	return nil
}
