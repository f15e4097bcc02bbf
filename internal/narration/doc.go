// Package narration assembles the spoken script from recognized panel text.
//
// The script is an opening line naming the title, the cleaned text of every
// panel in reading order with a spoken page transition between pages, and a
// fixed closing line. BuildScript is pure: identical input always yields the
// identical script.
package narration
