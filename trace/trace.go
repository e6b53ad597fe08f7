// Package trace records match activity into a versioned replay
// payload that can be written to and read back from disk.
package trace

import (
	"os"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version. Increment when the payload format changes.
const schemaVersion uint16 = 1

// RobotState is one robot's observable state at the end of a turn.
type RobotState struct {
	ID     int
	Name   string
	X, Y   float64
	Health float64
	Power  float64
	Fault  int
	Alive  bool
}

// Snapshot captures every robot at the end of one turn.
type Snapshot struct {
	Turn   int
	Robots []RobotState
}

// Replay is the full record of one match.
type Replay struct {
	Schema    uint16
	Seed      int64
	Winner    int
	Turns     int
	Snapshots []Snapshot
}

// Recorder accumulates snapshots while a match runs.
type Recorder struct {
	replay Replay
}

// NewRecorder creates a recorder for a match with the given seed.
func NewRecorder(seed int64) *Recorder {
	return &Recorder{
		replay: Replay{
			Schema: schemaVersion,
			Seed:   seed,
			Winner: -1,
		},
	}
}

// Add appends a turn snapshot.
func (r *Recorder) Add(snap Snapshot) {
	r.replay.Snapshots = append(r.replay.Snapshots, snap)
}

// Finish stores the match outcome.
func (r *Recorder) Finish(winner, turns int) {
	r.replay.Winner = winner
	r.replay.Turns = turns
}

// Replay returns the accumulated record.
func (r *Recorder) Replay() *Replay {
	return &r.replay
}

// WriteFile serializes the replay to the given path.
func (r *Replay) WriteFile(path string) error {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode replay")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write replay")
	}
	return nil
}

// ReadFile loads a replay written by WriteFile. Replays with an
// unknown schema version are rejected.
func ReadFile(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read replay")
	}

	var replay Replay
	if err := msgpack.Unmarshal(data, &replay); err != nil {
		return nil, errors.Wrap(err, "decode replay")
	}

	if replay.Schema != schemaVersion {
		return nil, errors.Errorf("unsupported replay schema %d", replay.Schema)
	}

	return &replay, nil
}
