package api

import (
	"fmt"
	"net/http"
)

func (a *Api) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	respondWithSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleWS godoc
//
//	@Summary		Live feed
//	@Description	Websocket that receives novel.created events
//	@Tags			events
//	@Success		101
//	@Router			/ws [get]
func (a *Api) HandleWS(w http.ResponseWriter, r *http.Request) {
	if err := a.feed.ServeWS(w, r); err != nil {
		a.logger.Error(fmt.Sprintf("error upgrading ws connection, %v", err), "service", "HandleWS")
	}
}
