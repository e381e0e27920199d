/*
File Name:  Feed.go
Copyright:  2024 Peerchat Project

The /ws/feed WebSocket endpoint: a fan-out of archive-change notifications
to every connected subscriber. A full subscriber channel drops the update
rather than stalling the broadcaster, matching the concurrency model's
non-blocking feed requirement.
*/

package webapi

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type feedUpdate struct {
	Size        uint32 `json:"size"`
	Fingerprint string `json:"fingerprint"`
}

type feedHub struct {
	mutex       sync.Mutex
	subscribers map[uuid.UUID]chan feedUpdate
}

func newFeedHub() *feedHub {
	return &feedHub{subscribers: make(map[uuid.UUID]chan feedUpdate)}
}

func (h *feedHub) subscribe() (uuid.UUID, chan feedUpdate) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	id := uuid.New()
	ch := make(chan feedUpdate, 4)
	h.subscribers[id] = ch
	return id, ch
}

func (h *feedHub) unsubscribe(id uuid.UUID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

func (h *feedHub) broadcast(update feedUpdate) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- update:
		default:
			// Subscriber is behind; drop rather than block the broadcaster.
		}
	}
}

/*
apiFeed upgrades the connection to a WebSocket and streams a JSON
feedUpdate for every successful archive append or convergence swap, until
the client disconnects.
Request:    GET /ws/feed
*/
func (api *WebapiInstance) apiFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		api.Backend.Filters.LogError("apiFeed", "upgrade: %s", err.Error())
		return
	}
	defer conn.Close()

	id, updates := api.feed.subscribe()
	defer api.feed.unsubscribe(id)

	for update := range updates {
		if err := conn.WriteJSON(update); err != nil {
			return
		}
	}
}
