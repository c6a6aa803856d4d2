package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"blechat/pkg/bus"
	"blechat/pkg/nodes"
	"blechat/pkg/protocol"
	"blechat/pkg/transport"
)

// State is the session lifecycle phase.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultChannel is the logical message lane used for all traffic.
const DefaultChannel uint32 = 0

const (
	defaultPrompt = "Ch0> "
	defaultYield  = 100 * time.Millisecond
)

// Options configures a Session. Bus, Scanner and NewClient are required.
type Options struct {
	// Target is the peer address. Empty routes Connect through the
	// discovery fallback, which will fail unless a device advertises an
	// empty address, mirroring the underlying library's behavior.
	Target string

	Prompt        string        // console prompt, default "Ch0> "
	PostSendYield time.Duration // pause after a send before re-prompting
	Channel       uint32        // logical channel for outbound messages

	In  io.Reader // keyboard input
	Out io.Writer // console output (messages, prompt, diagnostics)

	Bus       *bus.Bus
	Nodes     *nodes.Store // optional, renders friendly sender names
	Scanner   transport.Scanner
	NewClient func(address string) (transport.Client, error)

	Logger *zap.Logger
}

// Session owns the single connection and runs the interactive loop. One
// goroutine runs the loop, a second owns blocking keyboard reads, and the
// link's delivery goroutine invokes the inbound handlers; they share
// nothing but channels and the read-only client reference.
type Session struct {
	opts      Options
	resolver  *Resolver
	connector *Connector
	log       *zap.Logger

	state        atomic.Int32
	clientMu     sync.Mutex
	client       transport.Client
	closeOnce    sync.Once
	disconnectCh chan error
}

// NewSession wires the resolver/connector strategies and subscribes the
// inbound handlers. Subscriptions are permanent for the process lifetime.
func NewSession(opts Options) (*Session, error) {
	if opts.Bus == nil || opts.Scanner == nil || opts.NewClient == nil {
		return nil, errors.New("chat: Bus, Scanner and NewClient are required")
	}
	if opts.Prompt == "" {
		opts.Prompt = defaultPrompt
	}
	if opts.PostSendYield <= 0 {
		opts.PostSendYield = defaultYield
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}

	s := &Session{
		opts:         opts,
		log:          opts.Logger,
		disconnectCh: make(chan error, 1),
	}
	s.resolver = NewResolver(opts.Scanner, opts.Out, opts.Nodes)
	s.connector = &Connector{
		NewClient:    opts.NewClient,
		OnDisconnect: s.notifyDisconnect,
	}
	s.connector.Fallback = DiscoverConnect(s.resolver, s.connector, opts.Target)

	opts.Bus.Subscribe(bus.TopicReceiveText, s.handleReceive)
	opts.Bus.Subscribe(bus.TopicReceiveNodeInfo, s.handleNodeInfo)
	return s, nil
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return State(s.state.Load()) }

// Run connects to the target and drives the loop until ctx is canceled
// (user interrupt), stdin is exhausted, or the link drops. The connection
// is released on every return path.
func (s *Session) Run(ctx context.Context) error {
	s.state.Store(int32(StateConnecting))
	fmt.Fprintf(s.opts.Out, "Attempting to connect to device at address: %s\n", s.opts.Target)

	client, err := s.connector.Connect(ctx, s.opts.Target)
	if err != nil {
		s.state.Store(int32(StateClosed))
		return err
	}
	s.clientMu.Lock()
	s.client = client
	s.clientMu.Unlock()
	s.state.Store(int32(StateConnected))
	defer s.Close()

	fmt.Fprintln(s.opts.Out, "Connected to device!")
	fmt.Fprintln(s.opts.Out, "Type your message and press Enter to send. Press Ctrl+C to exit.")
	fmt.Fprintln(s.opts.Out)
	s.log.Info("session connected",
		zap.String("peer", client.Peer().Address),
		zap.Uint32("channel", s.opts.Channel))

	// Blocking keyboard reads live on their own goroutine so inbound
	// delivery keeps interleaving while we wait for a line.
	lines := make(chan string)
	go s.readInput(lines)

	s.printPrompt()
	for {
		select {
		case <-ctx.Done():
			s.state.Store(int32(StateClosing))
			fmt.Fprintln(s.opts.Out, "\nExiting...")
			s.Close()
			return nil

		case reason := <-s.disconnectCh:
			s.state.Store(int32(StateClosing))
			s.Close()
			if reason == nil {
				reason = errors.New("link closed by peer")
			}
			return fmt.Errorf("connection lost: %w", reason)

		case line, ok := <-lines:
			if !ok {
				// stdin exhausted, normal exit
				s.state.Store(int32(StateClosing))
				s.Close()
				return nil
			}
			if line == "" {
				s.printPrompt()
				continue
			}
			if err := client.SendText(ctx, line, s.opts.Channel); err != nil {
				// Surface and continue: the link may still be good for
				// inbound traffic, and only a disconnect is fatal.
				fmt.Fprintf(s.opts.Out, "error sending message: %v\n", err)
				s.log.Warn("send failed", zap.Error(err))
			}
			// Let pending inbound delivery flush before prompting again.
			time.Sleep(s.opts.PostSendYield)
			s.printPrompt()
		}
	}
}

// Close releases the connection. Idempotent; every exit path (normal,
// error, interrupt, remote disconnect) funnels through here and the
// client is closed exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.clientMu.Lock()
		client := s.client
		s.clientMu.Unlock()
		if client == nil {
			return
		}
		if err := client.Close(); err != nil {
			s.log.Warn("close failed", zap.Error(err))
		}
		s.log.Info("session closed")
	})
}

// notifyDisconnect is the callback the connector registers on the client.
// A drop after Close is expected teardown noise and ignored.
func (s *Session) notifyDisconnect(reason error) {
	if s.State() == StateClosed {
		return
	}
	select {
	case s.disconnectCh <- reason:
	default:
	}
}

// handleReceive renders one inbound text message. It runs on the link's
// delivery goroutine: no blocking, no long work. Packets without a text
// payload are dropped silently, whatever else they contain.
func (s *Session) handleReceive(ev bus.Event) {
	text, ok := ev.Packet.Text()
	if !ok {
		return
	}
	sender := ev.Packet.Sender()
	if s.opts.Nodes != nil && sender != protocol.SenderUnknown {
		sender = s.opts.Nodes.DisplayName(sender)
	}
	fmt.Fprintf(s.opts.Out, "\n%s: %s\n", sender, text)
	s.printPrompt()
}

// handleNodeInfo records identity announcements in the node registry.
func (s *Session) handleNodeInfo(ev bus.Event) {
	if s.opts.Nodes == nil || ev.Packet == nil || ev.Packet.Node == nil {
		return
	}
	s.opts.Nodes.Upsert(*ev.Packet.Node)
}

// readInput owns the blocking reads. The channel is closed on EOF; the
// goroutine itself lives until the process exits, which matches the
// process-lifetime scope of the session.
func (s *Session) readInput(lines chan<- string) {
	sc := bufio.NewScanner(s.opts.In)
	for sc.Scan() {
		lines <- sc.Text()
	}
	close(lines)
}

func (s *Session) printPrompt() {
	fmt.Fprint(s.opts.Out, s.opts.Prompt)
}
