// Package viz renders lattice trajectories in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [App]: preset picker that launches a live view
//   - [Model]: live view stepping a trajectory.Run one batch per frame
//   - [CellView]: Braille canvas of the fundamental cell
//   - Theme selection with 3 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume integration
//	R     - Restart from z0
//	+/-   - Steps per frame
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
