package db

import (
	"sync"

	"github.com/banshee-data/simhost/internal/monitoring"
	"github.com/banshee-data/simhost/internal/streaming"
)

// Recorder persists episode lifecycle and streaming batch telemetry. It
// satisfies both the streaming.BatchRecorder and episode.Telemetry
// interfaces; persistence failures are logged, never surfaced, so a full
// disk cannot stall a settle callback.
type Recorder struct {
	db *DB

	mu        sync.Mutex
	episodeID string
}

// NewRecorder creates a recorder writing to the given database.
func NewRecorder(db *DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) currentEpisode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.episodeID
}

// EpisodeStarted records the episode row and attributes subsequent batches
// to it.
func (r *Recorder) EpisodeStarted(id, mapName string) {
	r.mu.Lock()
	r.episodeID = id
	r.mu.Unlock()
	if err := r.db.RecordEpisodeStart(id, mapName); err != nil {
		monitoring.Logf("[Recorder] episode start %s: %v", id, err)
	}
}

// EpisodeEnded stamps the episode row's end time.
func (r *Recorder) EpisodeEnded(id string) {
	if err := r.db.RecordEpisodeEnd(id); err != nil {
		monitoring.Logf("[Recorder] episode end %s: %v", id, err)
	}
}

// BatchIssued records a new streaming batch.
func (r *Recorder) BatchIssued(b *streaming.Batch) {
	err := r.db.recordBatchIssued(b.ID, r.currentEpisode(), b.Op.String(), uint32(b.Mask), b.Mask.String(), len(b.SubMaps))
	if err != nil {
		monitoring.Logf("[Recorder] batch issued %s: %v", b.ID, err)
	}
}

// BatchSettled stamps the batch row's settle time.
func (r *Recorder) BatchSettled(b *streaming.Batch) {
	if err := r.db.recordBatchSettled(b.ID); err != nil {
		monitoring.Logf("[Recorder] batch settled %s: %v", b.ID, err)
	}
}
