// Package captions turns song lyrics and provider word timings into caption
// events and writes them as subtitle files.
//
// The Composer groups words into lines using silence gaps, sentence
// punctuation and a visual width ceiling in which wide CJK characters count
// double. FixedIntervalLines covers tracks without timing data. WriteASS
// produces the script burned in by the renderer; WriteSRT exists for export.
package captions
