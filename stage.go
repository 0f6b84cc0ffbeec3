// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tiledtex

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/tiledtex/gpucore"
)

// FrameSource tells the Stage where a frame came from.
type FrameSource uint8

const (
	// SourceStill is a newly loaded image. It always triggers a full build.
	SourceStill FrameSource = iota

	// SourceAnimation is the next frame of an animated image.
	SourceAnimation

	// SourceEdit is the result of an edit applied to the current image.
	SourceEdit
)

// String returns a human-readable name for the source.
func (s FrameSource) String() string {
	switch s {
	case SourceStill:
		return "Still"
	case SourceAnimation:
		return "Animation"
	case SourceEdit:
		return "Edit"
	default:
		return fmt.Sprintf("FrameSource(%d)", s)
	}
}

// Frame is a decoded raster image handed to the Stage.
type Frame struct {
	Image  *image.RGBA
	Source FrameSource

	// Delay is how long the frame should stay on screen. The Stage does not
	// schedule frames; it only carries the value for the caller.
	Delay time.Duration
}

// MessageKind classifies a user-facing message.
type MessageKind uint8

const (
	MessageInfo MessageKind = iota
	MessageWarning
	MessageError
	MessageLoadError
)

// String returns a human-readable name for the kind.
func (k MessageKind) String() string {
	switch k {
	case MessageInfo:
		return "Info"
	case MessageWarning:
		return "Warning"
	case MessageError:
		return "Error"
	case MessageLoadError:
		return "LoadError"
	default:
		return fmt.Sprintf("MessageKind(%d)", k)
	}
}

// Message is a user-facing notification emitted by the Stage.
type Message struct {
	Kind MessageKind
	Text string
}

func (m Message) String() string {
	return m.Kind.String() + ": " + m.Text
}

// Stage owns the tiled texture currently on display.
//
// A decoder or player goroutine sends frames to Frames(); the goroutine that
// owns the device consumes them with Poll or Run and builds or refreshes the
// tiled texture. Stage methods other than Frames and Messages must only be
// called from that owning goroutine.
type Stage struct {
	dev      gpucore.Device
	frames   chan Frame
	messages chan Message
	build    []BuildOption

	current *TiledTexture
	image   *image.RGBA
	closed  bool
}

// NewStage creates a Stage that uploads to dev.
func NewStage(dev gpucore.Device, opts ...StageOption) *Stage {
	o := defaultStageOptions()
	for _, opt := range opts {
		opt(&o)
	}
	propagateLogger(dev, Logger())
	return &Stage{
		dev:      dev,
		frames:   make(chan Frame, o.frameBuffer),
		messages: make(chan Message, o.messageBuffer),
		build:    o.build,
	}
}

// Frames returns the producer end of the frame channel.
// Exactly one goroutine should send on it, and only that goroutine may close it.
func (s *Stage) Frames() chan<- Frame {
	return s.frames
}

// Messages returns the user-facing message channel.
func (s *Stage) Messages() <-chan Message {
	return s.messages
}

// Texture returns the tiled texture on display, or nil.
func (s *Stage) Texture() *TiledTexture {
	return s.current
}

// Image returns the raster image the current texture was built or last
// refreshed from, or nil.
func (s *Stage) Image() *image.RGBA {
	return s.image
}

// Poll applies at most one pending frame without blocking.
// It reports whether a frame was consumed.
func (s *Stage) Poll() (bool, error) {
	select {
	case f, ok := <-s.frames:
		if !ok {
			return false, nil
		}
		return true, s.Apply(f)
	default:
		return false, nil
	}
}

// Run consumes frames until ctx is done or the frame channel is closed.
// Build failures are reported as messages and do not stop Run.
func (s *Stage) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-s.frames:
			if !ok {
				return nil
			}
			if err := s.Apply(f); err != nil && errors.Is(err, ErrReleased) {
				return err
			}
		}
	}
}

// Apply makes f the displayed image.
//
// Animation and edit frames with the size of the current texture refresh it
// in place. Anything else builds a new texture; the old one is destroyed
// right after the new build, so at most two tile sets exist at once.
// When the build fails the old texture is destroyed as well, nothing is
// displayed and a LoadError message is sent.
func (s *Stage) Apply(f Frame) error {
	if s.closed {
		return ErrReleased
	}
	if f.Image == nil || f.Image.Rect.Empty() {
		s.sendErr("received an empty frame")
		return fmt.Errorf("%w: empty frame", ErrInvalidImage)
	}

	if s.canRefresh(f) {
		if err := s.current.Refresh(s.dev, f.Image); err != nil {
			s.sendWarn(fmt.Sprintf("some tiles could not be updated: %v", err))
		}
		s.image = f.Image
		return nil
	}

	next, err := Build(s.dev, f.Image, s.build...)
	old := s.current
	s.current = nil
	if old != nil {
		old.Destroy(s.dev)
	}
	if err != nil {
		s.image = nil
		s.send(Message{Kind: MessageLoadError, Text: fmt.Sprintf("could not upload image: %v", err)})
		return err
	}

	s.current = next
	s.image = f.Image
	if !next.Partition().IsSingle() {
		s.sendInfo(fmt.Sprintf("image %dx%d exceeds the texture limit, split into %d tiles",
			next.Width(), next.Height(), next.Len()))
	}
	Logger().Debug("tiledtex: stage swapped texture",
		"source", f.Source, "tiles", next.Len(), "replaced", old != nil)
	return nil
}

func (s *Stage) canRefresh(f Frame) bool {
	if s.current == nil || f.Source == SourceStill {
		return false
	}
	w, h := s.current.Size()
	return f.Image.Rect.Dx() == w && f.Image.Rect.Dy() == h
}

// Close destroys the current texture. Close is idempotent.
// It does not close the frame channel, which belongs to the producer.
func (s *Stage) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.current != nil {
		s.current.Destroy(s.dev)
		s.current = nil
	}
	s.image = nil
	return nil
}

func (s *Stage) sendInfo(text string) { s.send(Message{Kind: MessageInfo, Text: text}) }
func (s *Stage) sendWarn(text string) { s.send(Message{Kind: MessageWarning, Text: text}) }
func (s *Stage) sendErr(text string)  { s.send(Message{Kind: MessageError, Text: text}) }

// send delivers m without blocking; a full channel drops it.
func (s *Stage) send(m Message) {
	select {
	case s.messages <- m:
	default:
		Logger().Warn("tiledtex: message dropped", "kind", m.Kind, "text", m.Text)
	}
}
