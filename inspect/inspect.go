package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/glintui/glint/reconcile"
)

// Service streams structural snapshots of an element tree to websocket
// clients, one frame per completed flush. The tree is owned by a single
// logical thread; snapshots are taken on that thread (inside the flush
// callback or an explicit `Publish`) and only the encoded bytes cross into
// the connection writers.

type InspectSettings struct {
	WriteTimeout     time.Duration
	ClientBufferSize int
}

func DefaultInspectSettings() *InspectSettings {
	return &InspectSettings{
		WriteTimeout:     15 * time.Second,
		ClientBufferSize: 32,
	}
}

type SnapshotFrame struct {
	Seq          uint64                     `json:"seq"`
	RootId       reconcile.Id               `json:"root_id"`
	ElementCount int                        `json:"element_count"`
	Root         *reconcile.ElementSnapshot `json:"root,omitempty"`
}

type Service struct {
	ctx    context.Context
	cancel context.CancelFunc

	tree     *reconcile.ElementTree
	secret   []byte
	settings *InspectSettings

	upgrader websocket.Upgrader

	unsubFlush func()

	stateLock sync.Mutex
	seq       uint64
	clients   map[reconcile.Id]chan []byte
}

func NewServiceWithDefaults(ctx context.Context, tree *reconcile.ElementTree, secret []byte) *Service {
	return NewService(ctx, tree, secret, DefaultInspectSettings())
}

func NewService(ctx context.Context, tree *reconcile.ElementTree, secret []byte, settings *InspectSettings) *Service {
	cancelCtx, cancel := context.WithCancel(ctx)
	service := &Service{
		ctx:      cancelCtx,
		cancel:   cancel,
		tree:     tree,
		secret:   secret,
		settings: settings,
		clients:  map[reconcile.Id]chan []byte{},
	}
	service.unsubFlush = tree.AddFlushCallback(service.Publish)
	return service
}

// take a snapshot and broadcast it. Must be called from the tree's thread.
func (self *Service) Publish() {
	frame := &SnapshotFrame{
		RootId:       self.tree.RootId(),
		ElementCount: self.tree.ElementCount(),
		Root:         self.tree.Snapshot(),
	}

	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.seq += 1
	frame.Seq = self.seq

	frameJson, err := json.Marshal(frame)
	if err != nil {
		glog.Errorf("[inspect]frame encode error = %s\n", err)
		return
	}

	for clientId, send := range self.clients {
		select {
		case send <- frameJson:
		default:
			// the client is not draining. Skip the frame; the next one
			// carries a complete snapshot anyway.
			glog.V(1).Infof("[inspect]drop frame %d for %s\n", frame.Seq, clientId)
		}
	}
}

func (self *Service) ClientCount() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return len(self.clients)
}

func (self *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientId, err := VerifyToken(self.secret, r.URL.Query().Get("auth"))
	if err != nil {
		glog.Infof("[inspect]auth error = %s\n", err)
		http.Error(w, "Unauthorized.", http.StatusUnauthorized)
		return
	}

	ws, err := self.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Infof("[inspect]upgrade error %s = %s\n", clientId, err)
		return
	}

	send := make(chan []byte, self.settings.ClientBufferSize)

	self.stateLock.Lock()
	if existing, ok := self.clients[clientId]; ok {
		close(existing)
	}
	self.clients[clientId] = send
	self.stateLock.Unlock()

	glog.Infof("[inspect]client %s connected\n", clientId)

	handleCtx, handleCancel := context.WithCancel(self.ctx)

	go func() {
		defer func() {
			handleCancel()
			ws.Close()

			self.stateLock.Lock()
			if self.clients[clientId] == send {
				delete(self.clients, clientId)
			}
			self.stateLock.Unlock()

			glog.Infof("[inspect]client %s disconnected\n", clientId)
		}()

		for {
			select {
			case <-handleCtx.Done():
				return
			case frameJson, ok := <-send:
				if !ok {
					return
				}
				ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.TextMessage, frameJson); err != nil {
					glog.V(1).Infof("[inspect]write error %s = %s\n", clientId, err)
					return
				}
			}
		}
	}()

	go func() {
		defer handleCancel()

		// the client sends nothing meaningful. Read to observe the close.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (self *Service) Close() {
	self.cancel()
	if self.unsubFlush != nil {
		self.unsubFlush()
		self.unsubFlush = nil
	}

	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	for clientId, send := range self.clients {
		close(send)
		delete(self.clients, clientId)
	}
}
