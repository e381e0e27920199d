/*
File Name:  API.go
Copyright:  2024 Peerchat Project

A read-only HTTP and WebSocket monitoring surface. It cannot submit
messages or otherwise mutate the archive; nothing here needs to be
trusted with a write, so it carries no authentication.
*/

package webapi

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/peerchat/archived/archive"
	"github.com/peerchat/archived/core"
	"github.com/peerchat/archived/store"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// WebapiInstance bundles the router and the live WebSocket subscriber set
// for one running monitoring server.
type WebapiInstance struct {
	Backend *core.Backend
	History *store.History

	Router *mux.Router

	feed *feedHub
	logs *logTail
}

// upgrader is used for the /ws/feed endpoint. It allows all origins since
// the surface is read-only and is meant to be embedded in local dashboards.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Start wires up the monitoring router and begins listening on listenAddr.
// It also installs the Filters.ArchiveChanged hook so every append or
// convergence swap both refreshes the history cache and pushes a feed
// update to connected WebSocket subscribers.
func Start(backend *core.Backend, listenAddr string) *WebapiInstance {
	api := &WebapiInstance{
		Backend: backend,
		History: store.NewHistory(),
		Router:  mux.NewRouter(),
		feed:    newFeedHub(),
		logs:    newLogTail(),
	}

	backend.Stdout.Subscribe(api.logs)
	api.refreshHistory()

	previous := backend.Filters.ArchiveChanged
	backend.Filters.ArchiveChanged = func(size uint32, fingerprint [32]byte) {
		if previous != nil {
			previous(size, fingerprint)
		}
		api.refreshHistory()
		api.feed.broadcast(feedUpdate{Size: size, Fingerprint: hex.EncodeToString(fingerprint[:])})
	}

	api.Router.HandleFunc("/status", api.apiStatus).Methods("GET")
	api.Router.HandleFunc("/peers", api.apiPeers).Methods("GET")
	api.Router.HandleFunc("/archive", api.apiArchive).Methods("GET")
	api.Router.HandleFunc("/logs", api.apiLogs).Methods("GET")
	api.Router.HandleFunc("/ws/feed", api.apiFeed).Methods("GET")

	go api.listen(listenAddr)

	return api
}

func (api *WebapiInstance) refreshHistory() {
	data, _ := api.Backend.ArchiveSnapshot()
	messages, err := archive.DecodeMessages(data)
	if err != nil {
		api.Backend.Filters.LogError("refreshHistory", "decode archive: %s", err.Error())
		return
	}
	api.History.Rebuild(messages)
}

func (api *WebapiInstance) listen(addr string) {
	server := &http.Server{
		Addr:         addr,
		Handler:      api.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		api.Backend.Filters.LogError("webapi.listen", "listen on '%s': %s", addr, err.Error())
	}
}

// encodeJSON writes data as a JSON response body.
func encodeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
