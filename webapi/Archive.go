/*
File Name:  Archive.go
Copyright:  2024 Peerchat Project
*/

package webapi

import "net/http"

/*
apiArchive returns every decoded chat message, served from the history
cache rather than re-parsing the raw archive bytes on every request.
Request:    GET /archive
Result:     200 with JSON array of store.Entry
*/
func (api *WebapiInstance) apiArchive(w http.ResponseWriter, r *http.Request) {
	encodeJSON(w, api.History.All())
}
