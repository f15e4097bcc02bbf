// Package scene renders still pages into moving video frames.
//
// A Clip pre-scales its source to cover the frame with overscan, then for
// each timestamp zooms in linearly from 1.0 and pans horizontally across the
// spare width while staying vertically centred: the Ken Burns effect.
// Consecutive scenes alternate pan direction. Title and outro cards are
// still clips rendered from text.
package scene
