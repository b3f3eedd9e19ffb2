package gstpipe

import (
	"log/slog"
	"sync/atomic"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Frame is a minimal decoded-frame struct for internal use (avoids an import
// cycle). The public Frame type lives in the parent package.
type Frame struct {
	Width  int
	Height int
	Data   []byte
}

// CallbackContext holds state needed by the appsink callback.
type CallbackContext struct {
	FrameChan chan<- Frame

	// Acquire obtains an output buffer of the given size; wired to the
	// owning decoder's buffer pool.
	Acquire func(size int) []byte
	// Release hands a buffer back when its frame is dropped.
	Release func(buf []byte)

	FramesDecoded *uint64 // atomic
	ConvertErrors *uint64 // atomic
	FramesDropped *uint64 // atomic, channel full
}

// OnNewSample is called by GStreamer when a decoded frame is available.
//
// This callback:
//  1. Pulls the sample from the appsink
//  2. Reads the frame geometry from the sample caps
//  3. Copies the pixels into a pooled buffer (GStreamer reuses its own)
//  4. Sends the frame to the channel (non-blocking, drops if full)
//
// A malformed sample is counted and skipped; a single bad frame must not
// terminate the stream.
func OnNewSample(sink *app.Sink, ctx *CallbackContext) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("gstpipe: failed to pull sample from appsink, skipping frame")
		atomic.AddUint64(ctx.ConvertErrors, 1)
		return gst.FlowOK
	}

	width, height, ok := sampleGeometry(sample)
	if !ok {
		slog.Warn("gstpipe: sample without RGBA geometry, skipping frame")
		atomic.AddUint64(ctx.ConvertErrors, 1)
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("gstpipe: failed to get buffer from sample, skipping frame")
		atomic.AddUint64(ctx.ConvertErrors, 1)
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	want := width * height * 4
	if len(data) < want {
		buffer.Unmap()
		slog.Warn("gstpipe: sample smaller than RGBA geometry, skipping frame",
			"size_bytes", len(data),
			"want_bytes", want,
		)
		atomic.AddUint64(ctx.ConvertErrors, 1)
		return gst.FlowOK
	}

	pixels := ctx.Acquire(want)
	copy(pixels, data[:want])
	buffer.Unmap()

	atomic.AddUint64(ctx.FramesDecoded, 1)

	frame := Frame{Width: width, Height: height, Data: pixels}
	select {
	case ctx.FrameChan <- frame:
	default:
		atomic.AddUint64(ctx.FramesDropped, 1)
		ctx.Release(pixels)
		slog.Debug("gstpipe: dropping decoded frame, channel full",
			"width", width,
			"height", height,
		)
	}

	return gst.FlowOK
}

// sampleGeometry reads width and height from the sample caps.
func sampleGeometry(sample *gst.Sample) (width, height int, ok bool) {
	caps := sample.GetCaps()
	if caps == nil {
		return 0, 0, false
	}
	structure := caps.GetStructureAt(0)
	if structure == nil {
		return 0, 0, false
	}

	wv, err := structure.GetValue("width")
	if err != nil {
		return 0, 0, false
	}
	hv, err := structure.GetValue("height")
	if err != nil {
		return 0, 0, false
	}

	w, wok := wv.(int)
	h, hok := hv.(int)
	if !wok || !hok || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
