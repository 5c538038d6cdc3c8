// Package notify is a small in-memory notification queue. Handlers push
// outcome notices; clients drain their queue instead of the server rendering
// toasts directly.
package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notice struct {
	Message string        `json:"message"`
	Kind    Kind          `json:"kind"`
	TTL     time.Duration `json:"ttl"`

	createdAt time.Time
}

const maxPerUser = 50

type Queue struct {
	byUser map[string][]Notice
	mutex  sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{
		byUser: make(map[string][]Notice),
	}
}

func (q *Queue) Push(userEmail string, notice Notice) {
	if notice.TTL == 0 {
		notice.TTL = 5 * time.Minute
	}
	notice.createdAt = time.Now()

	q.mutex.Lock()
	defer q.mutex.Unlock()

	queue := append(q.byUser[userEmail], notice)
	if len(queue) > maxPerUser {
		queue = queue[len(queue)-maxPerUser:]
	}
	q.byUser[userEmail] = queue
}

// Drain returns and removes the user's pending notices. Expired entries are
// dropped silently.
func (q *Queue) Drain(userEmail string) []Notice {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	queue := q.byUser[userEmail]
	delete(q.byUser, userEmail)

	now := time.Now()
	live := make([]Notice, 0, len(queue))
	for _, n := range queue {
		if now.Sub(n.createdAt) <= n.TTL {
			live = append(live, n)
		}
	}
	return live
}
