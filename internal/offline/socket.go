package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeSocket attaches a page context over a websocket. Page messages go to
// Handle; answers and broadcast notices are written back as JSON.
func (m *Manager) ServeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := m.Attach()
	defer m.Detach(client)
	log := m.log.WithField("client", client.ID)
	log.Debug("page attached")

	replies := make(chan Reply, noticeBuffer)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			var r Reply
			select {
			case <-ctx.Done():
				return
			case r = <-replies:
			case n, ok := <-client.Notices():
				if !ok {
					return
				}
				r = n
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(r); err != nil {
				log.WithError(err).Debug("websocket write failed")
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		msg, err := ParseMessage(data)
		if err != nil {
			log.WithError(err).Debug("ignoring page message")
			continue
		}
		if err := m.Handle(ctx, msg, replies); err != nil {
			log.WithError(err).Warn("message handling failed")
		}
	}
	cancel()
	wg.Wait()
	log.Debug("page detached")
}

// Port is the page side of the message protocol.
type Port struct {
	conn     *websocket.Conn
	incoming chan Reply
	done     chan struct{}
	err      error
}

// Dial connects to a ServeSocket endpoint (ws:// or wss://).
func Dial(ctx context.Context, url string) (*Port, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	p := &Port{conn: conn, incoming: make(chan Reply, noticeBuffer), done: make(chan struct{})}
	go p.readLoop()
	return p, nil
}

func (p *Port) readLoop() {
	defer close(p.done)
	for {
		var r Reply
		if err := p.conn.ReadJSON(&r); err != nil {
			p.err = err
			return
		}
		select {
		case p.incoming <- r:
		default:
			// Nobody is reading; drop the oldest to keep the newest.
			select {
			case <-p.incoming:
			default:
			}
			p.incoming <- r
		}
	}
}

// Post sends a message to the manager.
func (p *Port) Post(msg Message) error {
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(msg)
}

// Next waits for the next reply or notice.
func (p *Port) Next(ctx context.Context) (Reply, error) {
	select {
	case r := <-p.incoming:
		return r, nil
	case <-p.done:
		select {
		case r := <-p.incoming:
			return r, nil
		default:
		}
		if p.err == nil {
			return Reply{}, errors.New("connection closed")
		}
		return Reply{}, p.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// CheckUpdate posts CHECK_UPDATE_STATUS and returns the first reply that
// carries a type. A NEW_VERSION_INSTALLED notice pushed just before the
// answer is taken as the answer; both mean a new version was installed.
func (p *Port) CheckUpdate(ctx context.Context) (string, error) {
	if err := p.Post(Message{Kind: MsgCheckUpdateStatus}); err != nil {
		return "", err
	}
	for {
		r, err := p.Next(ctx)
		if err != nil {
			return "", err
		}
		if r.Type != "" {
			return r.Type, nil
		}
	}
}

// Version asks for the active version.
func (p *Port) Version(ctx context.Context) (string, error) {
	if err := p.Post(Message{Kind: MsgGetVersion}); err != nil {
		return "", err
	}
	for {
		r, err := p.Next(ctx)
		if err != nil {
			return "", err
		}
		if r.Version != nil {
			return *r.Version, nil
		}
	}
}

// SkipWaiting asks the manager to activate the waiting version.
func (p *Port) SkipWaiting() error {
	return p.Post(Message{Kind: MsgSkipWaiting})
}

func (p *Port) Close() error {
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return p.conn.Close()
}
