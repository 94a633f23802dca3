package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPort = 4321
	DialTimeout = 10 * time.Second

	// Connections waiting for the display to pick them up.
	acceptQueueSize = 4
)

var ErrListenerClosed = errors.New("listener closed")

// Transport carries whole frames over one persistent connection.
type Transport interface {
	ReadFrame() ([]byte, error)
	WriteFrame(frame []byte) error
	Close() error
	RemoteAddr() string
}

// NetworkAndAddress picks the network for address: anything that looks
// like a path is a unix socket, the rest is tcp with DefaultPort filled in.
func NetworkAndAddress(address string) (string, string) {
	var network string
	if strings.ContainsAny(address, `\/`) {
		network = "unix"
	} else {
		network = "tcp"

		if !strings.Contains(address, `:`) {
			address = fmt.Sprintf("%s:%d", address, DefaultPort)
		}
	}

	return network, address
}

func isWebsocket(address string) bool {
	return strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://")
}

// lineTransport frames messages as newline terminated JSON over a stream.
type lineTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner

	writeMu sync.Mutex
}

func NewLineTransport(conn net.Conn) Transport {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxFrameSize)

	return &lineTransport{conn: conn, scanner: scanner}
}

func (t *lineTransport) ReadFrame() ([]byte, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	frame := make([]byte, len(t.scanner.Bytes()))
	copy(frame, t.scanner.Bytes())
	return frame, nil
}

func (t *lineTransport) WriteFrame(frame []byte) error {
	if len(frame) == 0 || frame[len(frame)-1] != '\n' {
		frame = append(frame, '\n')
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	_, err := t.conn.Write(frame)
	return err
}

func (t *lineTransport) Close() error {
	return t.conn.Close()
}

func (t *lineTransport) RemoteAddr() string {
	if addr := t.conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	return t.conn.LocalAddr().Network()
}

// wsTransport sends one frame per websocket text message.
type wsTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func NewWebsocketTransport(conn *websocket.Conn) Transport {
	conn.SetReadLimit(MaxFrameSize)
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadFrame() ([]byte, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (t *wsTransport) WriteFrame(frame []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.conn.WriteMessage(websocket.TextMessage, []byte(strings.TrimRight(string(frame), "\n")))
}

func (t *wsTransport) Close() error {
	t.writeMu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()

	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// Dial connects to a display at address: ws:// and wss:// URLs, unix
// socket paths, or host[:port].
func Dial(ctx context.Context, address string) (Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	if isWebsocket(address) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, address, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", address, err)
		}
		return NewWebsocketTransport(conn), nil
	}

	network, address := NetworkAndAddress(address)

	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
	}
	return NewLineTransport(conn), nil
}

type Listener interface {
	Accept() (Transport, error)
	Close() error
	Addr() string
}

// Listen opens the display side endpoint for address, in the same forms
// Dial accepts.
func Listen(address string) (Listener, error) {
	if isWebsocket(address) {
		wl, err := listenWebsocket(address)
		if err != nil {
			return nil, err
		}
		return wl, nil
	}

	network, address := NetworkAndAddress(address)
	l, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("listen %s %s: %w", network, address, err)
	}
	return &netListener{l: l}, nil
}

type netListener struct {
	l net.Listener
}

func (nl *netListener) Accept() (Transport, error) {
	conn, err := nl.l.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrListenerClosed
		}
		return nil, err
	}
	return NewLineTransport(conn), nil
}

func (nl *netListener) Close() error {
	return nl.l.Close()
}

func (nl *netListener) Addr() string {
	return nl.l.Addr().String()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsListener struct {
	l      net.Listener
	server *http.Server
	path   string

	conns     chan *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func listenWebsocket(address string) (*wsListener, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", address, err)
	}

	host := u.Host
	if u.Port() == "" {
		host = fmt.Sprintf("%s:%d", u.Hostname(), DefaultPort)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	l, err := net.Listen("tcp", host)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", address, err)
	}

	wl := &wsListener{
		l:     l,
		path:  path,
		conns: make(chan *websocket.Conn, acceptQueueSize),
		done:  make(chan struct{}),
	}

	mux := httprouter.New()
	mux.GET(path, wl.serveWS)

	wl.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := wl.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", address).Msg("websocket listener stopped")
		}
	}()

	return wl, nil
}

func (wl *wsListener) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	select {
	case wl.conns <- conn:
	case <-wl.done:
		conn.Close()
	}
}

func (wl *wsListener) Accept() (Transport, error) {
	select {
	case conn := <-wl.conns:
		return NewWebsocketTransport(conn), nil
	case <-wl.done:
		return nil, ErrListenerClosed
	}
}

func (wl *wsListener) Close() error {
	var err error
	wl.closeOnce.Do(func() {
		close(wl.done)
		err = wl.server.Close()
	})
	return err
}

func (wl *wsListener) Addr() string {
	return fmt.Sprintf("ws://%s%s", wl.l.Addr(), wl.path)
}
