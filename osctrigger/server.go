// Package osctrigger is the reactive state source for the timing core: a
// small OSC server translating remote control messages into playback
// controller updates. Delivery is last-write-wins; nothing is queued.
package osctrigger

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"
	"github.com/jedp/metronome/logger"
	"github.com/sirupsen/logrus"
)

const (
	// AddrPlay toggles playback: one int32, 0 to pause, anything else to play.
	AddrPlay = "/metronome/play"

	// AddrRhythm updates the rhythm: an int32 tempo in bpm followed by one
	// int32 per metrical group carrying its sub-beat count.
	AddrRhythm = "/metronome/rhythm"
)

// Receiver is the controller surface the server drives.
type Receiver interface {
	OnPlayStateChanged(playing bool)
	OnRhythmChanged(bpm int, subdivisions []int) error
}

// Server listens for OSC packets and dispatches them to a Receiver.
type Server struct {
	addr     string
	receiver Receiver
	log      *logrus.Entry
	srv      *osc.Server
}

// NewServer creates a server listening on addr (e.g. "127.0.0.1:8765").
func NewServer(addr string, receiver Receiver) *Server {
	s := &Server{
		addr:     addr,
		receiver: receiver,
		log:      logger.GetProjectLogger(),
	}
	s.srv = &osc.Server{Addr: addr, Dispatcher: s}
	return s
}

// ListenAndServe blocks serving OSC packets until the underlying connection
// is closed.
func (s *Server) ListenAndServe() error {
	s.log.Infof("Listening for OSC control messages on %s...", s.addr)
	return s.srv.ListenAndServe()
}

// Dispatch implements osc.Dispatcher. Bundles are flattened; unknown
// addresses and malformed arguments are logged and dropped so a misbehaving
// remote can't stall the core.
func (s *Server) Dispatch(packet osc.Packet) {
	if packet == nil {
		return
	}

	switch packet := packet.(type) {
	case *osc.Message:
		if err := s.handle(packet); err != nil {
			s.log.Errorf("dropping OSC message %s: %v", packet.Address, err)
		}
	case *osc.Bundle:
		for _, message := range packet.Messages {
			if err := s.handle(message); err != nil {
				s.log.Errorf("dropping OSC message %s: %v", message.Address, err)
			}
		}
		for _, bundle := range packet.Bundles {
			s.Dispatch(bundle)
		}
	}
}

func (s *Server) handle(msg *osc.Message) error {
	switch msg.Address {
	case AddrPlay:
		if len(msg.Arguments) != 1 {
			return fmt.Errorf("want 1 argument, got %d", len(msg.Arguments))
		}
		v, ok := msg.Arguments[0].(int32)
		if !ok {
			return fmt.Errorf("play flag must be an int32")
		}
		s.receiver.OnPlayStateChanged(v != 0)
		return nil

	case AddrRhythm:
		if len(msg.Arguments) < 1 {
			return fmt.Errorf("want at least a tempo argument")
		}
		args := make([]int, 0, len(msg.Arguments))
		for i, raw := range msg.Arguments {
			v, ok := raw.(int32)
			if !ok {
				return fmt.Errorf("argument %d must be an int32", i)
			}
			args = append(args, int(v))
		}
		return s.receiver.OnRhythmChanged(args[0], args[1:])

	default:
		return fmt.Errorf("unknown address")
	}
}
