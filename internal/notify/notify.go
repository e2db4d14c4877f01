// notify.go
//
// A schema-driven admin back-office data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-admindb.
// jam-build-admindb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-admindb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-admindb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mention is delivered once per newly mentioned identity.
type Mention struct {
	Recipient  string    `json:"recipient"`
	Author     string    `json:"author"`
	Table      string    `json:"table"`
	DocumentID string    `json:"documentId"`
	CommentID  string    `json:"commentId"`
	Excerpt    string    `json:"excerpt"`
	At         time.Time `json:"at"`
}

// Notifier accepts mentions without blocking the caller.
type Notifier interface {
	Notify(mentions ...Mention)
}

// Sink delivers one mention. Errors are logged by the dispatcher.
type Sink interface {
	Deliver(ctx context.Context, m Mention) error
}

// Dispatcher queues mentions and hands them to every sink from a single
// worker goroutine. A full queue drops the mention.
type Dispatcher struct {
	log     *zap.Logger
	sinks   []Sink
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Mention
	done   chan struct{}
}

func NewDispatcher(log *zap.Logger, buffer int, sinks ...Sink) *Dispatcher {
	if buffer < 1 {
		buffer = 64
	}
	d := &Dispatcher{
		log:     log,
		sinks:   sinks,
		timeout: 5 * time.Second,
		queue:   make(chan Mention, buffer),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Notify(mentions ...Mention) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	for _, m := range mentions {
		select {
		case d.queue <- m:
		default:
			d.log.Warn("mention dropped, queue full",
				zap.String("recipient", m.Recipient),
				zap.String("commentId", m.CommentID))
		}
	}
}

// Close stops accepting mentions and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for m := range d.queue {
		for _, sink := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			if err := sink.Deliver(ctx, m); err != nil {
				d.log.Error("mention delivery failed",
					zap.String("recipient", m.Recipient),
					zap.String("commentId", m.CommentID),
					zap.Error(err))
			}
			cancel()
		}
	}
}

// LogSink writes mentions to the application log.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, m Mention) error {
	s.Log.Info("mention",
		zap.String("recipient", m.Recipient),
		zap.String("author", m.Author),
		zap.String("table", m.Table),
		zap.String("documentId", m.DocumentID),
		zap.String("commentId", m.CommentID))
	return nil
}
