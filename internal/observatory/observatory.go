// Package observatory holds the state behind the run visualizations:
// recording load and validation, convergence statistics, the prism
// fracture timeline, the resonance wave spring and the graph layouts.
// Everything here is derived state; rendering lives in the board.
package observatory

// RecordingExt is the file suffix the backend gives run recordings.
const RecordingExt = ".prism.json"

// DefaultScale is the score scale assumed when a run does not declare
// one.
const DefaultScale = 10.0
