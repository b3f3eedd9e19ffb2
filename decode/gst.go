package decode

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/visiona/deskpipe/bufpool"
	"github.com/visiona/deskpipe/decode/internal/gstpipe"
)

const defaultChannelDepth = 8

// gstDecoder implements Decoder on top of a GStreamer pipeline. The hardware
// and software backends differ only in the element chain; everything else is
// shared.
type gstDecoder struct {
	name     string
	elements *gstpipe.Elements
	pool     *bufpool.Pool
	frames   chan gstpipe.Frame

	framesDecoded uint64
	convertErrors uint64
	framesDropped uint64

	closed bool
}

func newGstDecoder(cfg Config, hardware bool) (Decoder, error) {
	name := NameSoftware
	check := gstpipe.CheckSoftwareAvailable
	if hardware {
		name = NameHardware
		check = gstpipe.CheckHardwareAvailable
	}

	// Fail-fast availability probe before building anything.
	if err := check(); err != nil {
		return nil, err
	}

	elements, err := gstpipe.CreateDecodePipeline(gstpipe.Config{Hardware: hardware})
	if err != nil {
		return nil, fmt.Errorf("failed to create decode pipeline: %w", err)
	}

	depth := cfg.ChannelDepth
	if depth <= 0 {
		depth = defaultChannelDepth
	}

	d := &gstDecoder{
		name:     name,
		elements: elements,
		pool:     bufpool.New(cfg.PoolMaxPerBucket),
		frames:   make(chan gstpipe.Frame, depth),
	}

	callbackCtx := &gstpipe.CallbackContext{
		FrameChan:     d.frames,
		Acquire:       d.pool.Acquire,
		Release:       d.pool.Release,
		FramesDecoded: &d.framesDecoded,
		ConvertErrors: &d.convertErrors,
		FramesDropped: &d.framesDropped,
	}
	elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return gstpipe.OnNewSample(sink, callbackCtx)
		},
	})

	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		gstpipe.DestroyPipeline(elements)
		return nil, fmt.Errorf("failed to start decode pipeline: %w", err)
	}

	slog.Info("decode: backend initialized",
		"backend", name,
		"channel_depth", depth,
	)

	return d, nil
}

// Decode feeds one Annex-B NAL sequence and returns whatever frames the
// pipeline has produced so far. The pipeline decodes asynchronously, so a
// frame pushed here may surface on a later call.
func (d *gstDecoder) Decode(nal []byte) ([]Frame, error) {
	if d.closed {
		return nil, fmt.Errorf("decode: %s: decoder closed", d.name)
	}
	if len(nal) == 0 {
		return d.drain(), nil
	}

	buffer := gst.NewBufferFromBytes(nal)
	if ret := d.elements.AppSrc.PushBuffer(buffer); ret != gst.FlowOK {
		// Error returns carry no frames; recycle whatever was queued so the
		// caller's drop-and-continue path cannot leak pooled buffers.
		for _, f := range d.drain() {
			d.pool.Release(f.Data)
		}
		return nil, fmt.Errorf("decode: %s: pipeline rejected buffer: %s", d.name, ret)
	}

	return d.drain(), nil
}

// Flush returns the frames the pipeline has produced so far. It does not
// terminate the stream: the decoder keeps accepting input, and frames still
// inside the decoder elements surface on later Decode or Flush calls.
// Remote-desktop streams carry no B-frames, so nothing lingers long.
func (d *gstDecoder) Flush() []Frame {
	if d.closed {
		return nil
	}
	return d.drain()
}

func (d *gstDecoder) Name() string { return d.name }

// Release returns a frame's pixels to the decoder's private pool.
func (d *gstDecoder) Release(f Frame) {
	d.pool.Release(f.Data)
}

// Close signals end-of-stream, waits briefly for the pipeline to drain,
// then tears it down and recycles any frames still queued.
func (d *gstDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	d.elements.AppSrc.EndStream()
	bus := d.elements.Pipeline.GetPipelineBus()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg != nil && msg.Type() == gst.MessageEOS {
			break
		}
	}

	err := gstpipe.DestroyPipeline(d.elements)

	for {
		select {
		case f := <-d.frames:
			d.pool.Release(f.Data)
		default:
			slog.Info("decode: backend closed",
				"backend", d.name,
				"frames_decoded", atomic.LoadUint64(&d.framesDecoded),
				"convert_errors", atomic.LoadUint64(&d.convertErrors),
				"frames_dropped", atomic.LoadUint64(&d.framesDropped),
			)
			return err
		}
	}
}

// drain collects everything the appsink callback has queued, without
// blocking.
func (d *gstDecoder) drain() []Frame {
	var out []Frame
	for {
		select {
		case f := <-d.frames:
			out = append(out, Frame{Width: f.Width, Height: f.Height, Data: f.Data})
		default:
			return out
		}
	}
}
