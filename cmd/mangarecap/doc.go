// Command mangarecap turns a manga chapter into a narrated video recap.
//
// The render command drives the whole pipeline; deps reports which external
// tools are installed, panels prints the detected panels of one page image,
// and config manages the TOML configuration file.
package main
