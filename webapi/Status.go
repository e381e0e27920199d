/*
File Name:  Status.go
Copyright:  2024 Peerchat Project
*/

package webapi

import (
	"encoding/hex"
	"net/http"
)

type apiResponseStatus struct {
	UptimeSeconds  int64  `json:"uptimeSeconds"`
	OwnIP          string `json:"ownIP"`
	ArchiveSize    uint32 `json:"archiveSize"`
	Fingerprint    string `json:"fingerprint"`
	ConnectedPeers int    `json:"connectedPeers"`
}

/*
apiStatus reports node uptime, own address, archive size and fingerprint,
and the number of currently connected peers.
Request:    GET /status
Result:     200 with JSON apiResponseStatus
*/
func (api *WebapiInstance) apiStatus(w http.ResponseWriter, r *http.Request) {
	fingerprint := api.Backend.ArchiveFingerprint()

	status := apiResponseStatus{
		UptimeSeconds:  int64(api.Backend.Uptime().Seconds()),
		OwnIP:          api.Backend.SelfNetIP().String(),
		ArchiveSize:    api.Backend.ArchiveSize(),
		Fingerprint:    hex.EncodeToString(fingerprint[:]),
		ConnectedPeers: api.Backend.Registry.Count(),
	}

	encodeJSON(w, status)
}

/*
apiPeers reports the IPv4 addresses of every currently connected peer.
Request:    GET /peers
Result:     200 with JSON array of dotted-quad strings
*/
func (api *WebapiInstance) apiPeers(w http.ResponseWriter, r *http.Request) {
	ips := api.Backend.Registry.IPs()
	addrs := make([]string, len(ips))
	for i, ip := range ips {
		addrs[i] = ip.String()
	}
	encodeJSON(w, addrs)
}
