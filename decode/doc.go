// Package decode turns H.264 Annex-B NAL units into RGBA frames behind a
// fixed pair of interchangeable backends.
//
// Philosophy: "One contract, two backends, zero allocation on the hot path."
//
// Design:
//   - Decoder contract: Decode (0..n frames per call), Flush, Name
//   - Hardware backend: GStreamer VAAPI pipeline (vaapih264dec)
//   - Software backend: GStreamer libav pipeline (avdec_h264)
//   - Selection policy: force-hardware, force-software, or automatic with
//     warn-and-fall-back on hardware initialization failure
//   - Every decoder owns a private bufpool.Pool backing its output frames;
//     callers return frames with Release when the pixels have been consumed
//
// The backend set is closed by design: the factory selects among known
// variants at construction time rather than an open plugin registry.
package decode
