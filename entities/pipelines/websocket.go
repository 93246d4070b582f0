package pipelines

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type BoardWSMessage struct {
	Action     string `json:"action"`
	PipelineID string `json:"pipeline_id"`
	ContactID  string `json:"contact_id,omitempty"`
	StageID    string `json:"stage_id,omitempty"`
	Details    string `json:"details,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var wsClients = make(map[*websocket.Conn]bool)
var wsMutex sync.Mutex

// BroadcastBoardUpdate pushes a board event to every connected client.
func BroadcastBoardUpdate(msg BoardWSMessage) {
	wsMutex.Lock()
	defer wsMutex.Unlock()
	for client := range wsClients {
		err := client.WriteJSON(msg)
		if err != nil {
			client.Close()
			delete(wsClients, client)
		}
	}
}

func BoardWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "Impossible de passer la connexion en websocket", http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	wsMutex.Lock()
	wsClients[conn] = true
	wsMutex.Unlock()

	for {
		msg := BoardWSMessage{}
		err := conn.ReadJSON(&msg)
		if err != nil {
			break
		}

		BroadcastBoardUpdate(msg)
	}

	wsMutex.Lock()
	delete(wsClients, conn)
	wsMutex.Unlock()
}
