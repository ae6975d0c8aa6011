package server

import (
	"log"
	"sync"
	"time"

	"github.com/burbokop/fast-pased-mp-game/game"
)

const (
	recorderBufSize   = 256
	recorderBatchSize = 32
	recorderFlushEach = 2 * time.Second
)

// Recorder persists frags off the simulation thread. Events are
// buffered and written in batches so the tick loop never waits on
// sqlite.
type Recorder struct {
	db     *StatsDB
	events chan game.Frag
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewRecorder starts the background writer.
func NewRecorder(db *StatsDB) *Recorder {
	r := &Recorder{
		db:     db,
		events: make(chan game.Frag, recorderBufSize),
		stop:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// Record enqueues a frag without blocking. A full buffer drops the
// event rather than stalling the tick.
func (r *Recorder) Record(f game.Frag) {
	select {
	case r.events <- f:
	default:
	}
}

// Stop flushes pending events and shuts the writer down. Record must
// not be called after Stop.
func (r *Recorder) Stop() {
	close(r.stop)
	r.wg.Wait()
}

func (r *Recorder) writer() {
	defer r.wg.Done()

	batch := make([]game.Frag, 0, recorderBatchSize)
	ticker := time.NewTicker(recorderFlushEach)
	defer ticker.Stop()

	for {
		select {
		case f := <-r.events:
			batch = append(batch, f)
			if len(batch) >= recorderBatchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.stop:
			close(r.events)
			for f := range r.events {
				batch = append(batch, f)
			}
			r.flush(batch)
			return
		}
	}
}

func (r *Recorder) flush(batch []game.Frag) {
	if len(batch) == 0 {
		return
	}
	if err := r.db.InsertFrags(batch); err != nil {
		log.Printf("recorder: flush error: %v", err)
	}
}
