// Package encoding turns rendered clips and the narration track into the
// final MP4 with ffmpeg.
//
// Each clip is encoded to its own H.264 segment by piping raw RGBA frames to
// ffmpeg's stdin, so no intermediate frame files touch the disk. Assembly
// concatenates the segments with the concat demuxer (stream copy, since all
// segments share codec parameters), maps the narration in as AAC, and writes
// to a partial file that is renamed over the output only on success. When the
// narration cannot be attached the video is assembled silent instead.
package encoding
