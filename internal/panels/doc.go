// Package panels segments a rasterized comic page into panel rectangles and
// orders them for narration.
//
// Detection binarizes the page with a fixed ink cutoff, closes then opens the
// mask with a square structuring element, and keeps only external blobs: ink
// regions reachable from the page margin. Closing bridges small gaps in panel
// borders; opening removes speckle and any stroke thinner than the kernel.
// Anything drawn inside a panel's border is part of that panel, not a panel
// of its own. A blob's area is the polygon area through the centres of its
// outer boundary pixels, not its pixel count, so a filled 100x100 square
// measures 99*99 and falls under a 10000 minimum.
//
// Panels are returned right-to-left within coarse horizontal bands, bands
// top-to-bottom, which is the manga reading convention.
package panels
