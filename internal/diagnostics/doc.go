// Package diagnostics records what an equalization run did.
//
// A FrameRecorder hooks into brightness.Equalizer, saves a sampled subset of
// the intermediate lightness states as PNG frames with the corrected patch
// outlined, renders each patch-size search candidate as a centred rectangle,
// and writes a frames.yaml manifest describing every saved frame. The frames
// are meant to be stitched into an animation with an external tool.
package diagnostics
