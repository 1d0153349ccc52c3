package medium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	uuidLib "github.com/google/uuid"
	"github.com/gorilla/websocket"

	"custody/pkg/entities"
	"custody/utilities"
)

// AllVaults is the subscription that receives every event.
const AllVaults = "vault_all"

type ErrWSConnAbsent struct {
	Message string
	ID      string
}

func (e *ErrWSConnAbsent) Error() string {
	return fmt.Sprintf("%s, ID: %s", e.Message, e.ID)
}

// Socket keeps websocket subscribers grouped by identifier and pushes vault
// events to them.
type Socket struct {
	*sync.RWMutex
	ConnSet map[string]*SubscriberConnObject
}

type SubscriberConnObject struct {
	ConnObjs    []*ConnObject
	IsOnline    bool
	LastChecked time.Time
}

type ConnObject struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan []byte
	Close chan struct{}
	once  sync.Once
}

func (c *ConnObject) closeOnce() {
	c.once.Do(func() { close(c.Close) })
}

// drop gives up on a subscriber. Closing the socket also unblocks a writer
// stuck on a peer that stopped reading.
func (c *ConnObject) drop() {
	c.closeOnce()
	_ = c.Conn.Close()
}

// write is only called from the writer goroutine of the connection.
func (c *ConnObject) write(messageType int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

const (
	pingInterval = time.Second * 30
	pongWait     = 2 * pingInterval
	writeWait    = time.Second * 10

	// messages queued per subscriber before it is considered too slow
	sendBuffer = 64
)

func FormatIdentifier(kind string, id int) string {
	return kind + "_" + strconv.Itoa(id)
}

// Add registers conn under identifier. A reader goroutine handles pongs and
// close frames, a writer goroutine drains the send queue and pings.
func (s *Socket) Add(identifier string, conn *websocket.Conn) string {
	log := utilities.NewLoggerWithFields(
		"websocket.Add", map[string]interface{}{
			"id": identifier,
		},
	)

	connObj := &ConnObject{
		Conn:  conn,
		Send:  make(chan []byte, sendBuffer),
		Close: make(chan struct{}),
		ID:    uuidLib.NewString(),
	}

	connObj.Conn.SetCloseHandler(
		func(code int, text string) error {
			connObj.closeOnce()
			log.Infof("Received close message with code %d and text %s for id %s:%s", code, text, identifier, connObj.ID)
			return nil
		},
	)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		s.markOnline(identifier)
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.Lock()
	if _, ok := s.ConnSet[identifier]; !ok {
		s.ConnSet[identifier] = &SubscriberConnObject{
			ConnObjs: make([]*ConnObject, 0),
		}
	}
	s.ConnSet[identifier].ConnObjs = append(s.ConnSet[identifier].ConnObjs, connObj)
	s.ConnSet[identifier].IsOnline = true
	s.ConnSet[identifier].LastChecked = time.Now()
	total := len(s.ConnSet[identifier].ConnObjs)
	s.Unlock()

	// subscribers only listen; reading drives pong and close handling
	go func() {
		defer connObj.closeOnce()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeErr := &websocket.CloseError{}
				if !errors.As(err, &closeErr) {
					log.WithError(err).Debug("ws read ended")
				}
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer func() {
			log.Infof("Closing the ws connection for %s:%s", identifier, connObj.ID)
			ticker.Stop()
			err := connObj.write(
				websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			if err != nil {
				log.WithError(err).Debug("sending close msg failed")
			}
			s.Remove(identifier, connObj.ID)
		}()

		for {
			select {
			case <-connObj.Close:
				return
			case data := <-connObj.Send:
				if err := connObj.write(websocket.TextMessage, data); err != nil {
					log.WithError(err).Errorf("write failed, id: %s", identifier)
					return
				}
			case <-ticker.C:
				if err := connObj.write(websocket.PingMessage, []byte{}); err != nil {
					log.WithError(err).Errorf("ping failed, id: %s", identifier)
					return
				}
			}
		}
	}()

	log.Debugf("Adding new ws connection %s for %s, total conns: %d", connObj.ID, identifier, total)

	return connObj.ID
}

func (s *Socket) markOnline(identifier string) {
	s.Lock()
	defer s.Unlock()
	if obj, ok := s.ConnSet[identifier]; ok {
		obj.IsOnline = true
		obj.LastChecked = time.Now()
	}
}

func (s *Socket) Remove(identifier string, connID string) {
	log := utilities.NewLoggerWithFields(
		"websocket.Remove", map[string]interface{}{
			"id": identifier,
		},
	)

	s.Lock()
	defer s.Unlock()
	subscriberConnObj, ok := s.ConnSet[identifier]
	if !ok || subscriberConnObj == nil {
		// nothing to remove
		return
	}

	acceptedConns := make([]*ConnObject, 0)
	for _, connObj := range subscriberConnObj.ConnObjs {
		if connObj.ID == connID {
			if err := connObj.Conn.Close(); err != nil {
				log.WithError(err).Debugf("error closing ws conn for id %s", identifier)
			}
			continue
		}
		acceptedConns = append(acceptedConns, connObj)
	}

	if len(acceptedConns) == 0 {
		delete(s.ConnSet, identifier)
	} else {
		s.ConnSet[identifier].ConnObjs = acceptedConns
	}
}

// Subscribers returns the number of live connections under identifier.
func (s *Socket) Subscribers(identifier string) int {
	s.RLock()
	defer s.RUnlock()
	if obj, ok := s.ConnSet[identifier]; ok {
		return len(obj.ConnObjs)
	}
	return 0
}

func NewWebSocket() *Socket {
	return &Socket{
		RWMutex: new(sync.RWMutex),
		ConnSet: make(map[string]*SubscriberConnObject),
	}
}

func Upgrade() websocket.Upgrader {
	return websocket.Upgrader{
		Subprotocols: []string{"websocket"},
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// PushMessage queues data for every connection under identifier. It never
// waits on a peer.
func (s *Socket) PushMessage(identifier string, data []byte) error {
	log := utilities.NewLoggerWithFields(
		"websocket.PushMessage", map[string]interface{}{
			"id": identifier,
		},
	)

	s.RLock()
	subscriberConnObj, ok := s.ConnSet[identifier]
	var connObjs []*ConnObject
	if ok && subscriberConnObj != nil {
		connObjs = append(connObjs, subscriberConnObj.ConnObjs...)
	}
	s.RUnlock()

	if len(connObjs) < 1 {
		return &ErrWSConnAbsent{
			Message: "ws connection absent",
			ID:      identifier,
		}
	}

	queued := 0
	var pushErrors []string
	for _, connObj := range connObjs {
		select {
		case <-connObj.Close:
			pushErrors = append(pushErrors, connObj.ID+" closed")
		case connObj.Send <- data:
			queued++
		default:
			log.Warnf("subscriber %s is not keeping up, dropping it", connObj.ID)
			connObj.drop()
			pushErrors = append(pushErrors, connObj.ID+" dropped")
		}
	}

	if queued == 0 {
		return fmt.Errorf("ws message failed for %s: %s", identifier, strings.Join(pushErrors, ":"))
	}

	log.Debugf("ws message queued for %d conns", queued)

	return nil
}

// PublishEvent pushes event to subscribers of its vault and of AllVaults.
func (s *Socket) PublishEvent(_ context.Context, event entities.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	for _, identifier := range []string{FormatIdentifier("vault", event.VaultID), AllVaults} {
		err := s.PushMessage(identifier, data)
		absent := &ErrWSConnAbsent{}
		if err != nil && !errors.As(err, &absent) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Socket) Close() {
	s.RLock()
	var all []*ConnObject
	for _, obj := range s.ConnSet {
		all = append(all, obj.ConnObjs...)
	}
	s.RUnlock()

	for _, connObj := range all {
		connObj.closeOnce()
	}
}
