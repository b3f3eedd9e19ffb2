// Package gstpipe builds and drives the GStreamer pipelines backing the
// decode backends. It is internal: the parent package owns the public
// decoder contract.
package gstpipe

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Config contains pipeline construction parameters.
type Config struct {
	// Hardware selects the VAAPI element chain; false selects avdec_h264.
	Hardware bool
}

// Elements holds references to the pipeline elements needed after
// construction (feeding, draining, teardown).
type Elements struct {
	Pipeline *gst.Pipeline
	AppSrc   *app.Source
	AppSink  *app.Sink
}

// CreateDecodePipeline creates a GStreamer decode pipeline.
//
// Hardware chain:
//
//	appsrc → h264parse → vaapih264dec → vaapipostproc → videoconvert →
//	capsfilter(RGBA) → appsink
//
// Software chain:
//
//	appsrc → h264parse → avdec_h264 → videoconvert →
//	capsfilter(RGBA) → appsink
//
// The pipeline is configured but NOT started (state remains NULL). Caller
// must call Elements.Pipeline.SetState(gst.StatePlaying).
func CreateDecodePipeline(cfg Config) (*Elements, error) {
	// Safe to call multiple times.
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	appsrc, err := app.NewAppSrc()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsrc: %w", err)
	}
	// The protocol layer hands us start-code-delimited access units.
	appsrc.SetCaps(gst.NewCapsFromString(
		"video/x-h264,stream-format=byte-stream,alignment=au",
	))
	appsrc.SetProperty("is-live", true)
	appsrc.SetProperty("format", 3) // GST_FORMAT_TIME
	appsrc.SetProperty("do-timestamp", true)

	parser, err := gst.NewElement("h264parse")
	if err != nil {
		return nil, fmt.Errorf("failed to create h264parse: %w", err)
	}

	var chain []*gst.Element
	if cfg.Hardware {
		decoder, err := gst.NewElement("vaapih264dec")
		if err != nil {
			return nil, fmt.Errorf("failed to create vaapih264dec (VAAPI required): %w", err)
		}
		// Remote-desktop streams carry no B-frames; low-latency is safe.
		decoder.SetProperty("low-latency", true)

		postproc, err := gst.NewElement("vaapipostproc")
		if err != nil {
			return nil, fmt.Errorf("failed to create vaapipostproc (VAAPI required): %w", err)
		}
		postproc.SetProperty("format", "nv12")

		converter, err := gst.NewElement("videoconvert")
		if err != nil {
			return nil, fmt.Errorf("failed to create videoconvert: %w", err)
		}
		converter.SetProperty("n-threads", 0) // auto-detect cores

		chain = []*gst.Element{decoder, postproc, converter}
	} else {
		decoder, err := gst.NewElement("avdec_h264")
		if err != nil {
			return nil, fmt.Errorf("failed to create avdec_h264: %w", err)
		}
		decoder.SetProperty("max-threads", 0)        // auto-detect cores
		decoder.SetProperty("output-corrupt", false) // skip damaged frames

		converter, err := gst.NewElement("videoconvert")
		if err != nil {
			return nil, fmt.Errorf("failed to create videoconvert: %w", err)
		}
		converter.SetProperty("n-threads", 0)

		chain = []*gst.Element{decoder, converter}
	}

	// Lock the output format so every sample is RGBA with stride = width*4.
	capsRGBA, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsRGBA.SetProperty("caps", gst.NewCapsFromString("video/x-raw,format=RGBA"))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false) // real-time, no clock sync

	all := append([]*gst.Element{appsrc.Element, parser}, chain...)
	all = append(all, capsRGBA, appsink.Element)

	if err := pipeline.AddMany(all...); err != nil {
		return nil, fmt.Errorf("failed to add pipeline elements: %w", err)
	}
	if err := gst.ElementLinkMany(all...); err != nil {
		return nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	slog.Debug("gstpipe: decode pipeline created", "hardware", cfg.Hardware)

	return &Elements{
		Pipeline: pipeline,
		AppSrc:   appsrc,
		AppSink:  appsink,
	}, nil
}

// DestroyPipeline sets the pipeline to NULL state and releases resources.
// Safe to call on a nil or already destroyed pipeline.
func DestroyPipeline(elements *Elements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}
	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	return nil
}

// CheckHardwareAvailable probes for the VAAPI decode elements.
//
// This is a fail-fast validation that runs at construction time for the
// hardware backend and for automatic selection. Returns an error if the
// elements are missing (no gstreamer1.0-vaapi package or incompatible
// hardware).
func CheckHardwareAvailable() error {
	gst.Init(nil)

	decoder, err := gst.NewElement("vaapih264dec")
	if err != nil {
		return fmt.Errorf("vaapih264dec not available (install gstreamer1.0-vaapi): %w", err)
	}
	decoder.SetState(gst.StateNull)

	postproc, err := gst.NewElement("vaapipostproc")
	if err != nil {
		return fmt.Errorf("vaapipostproc not available (install gstreamer1.0-vaapi): %w", err)
	}
	postproc.SetState(gst.StateNull)

	return nil
}

// CheckSoftwareAvailable probes for the libav H.264 decoder element.
func CheckSoftwareAvailable() error {
	gst.Init(nil)

	decoder, err := gst.NewElement("avdec_h264")
	if err != nil {
		return fmt.Errorf("avdec_h264 not available (install gstreamer1.0-libav): %w", err)
	}
	decoder.SetState(gst.StateNull)

	return nil
}
