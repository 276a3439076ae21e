// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for mood-based recommendations:
//  1. [DetectView] : Watch the emotion window fill while the stabilizer settles on a mood
//  2. [ResultView] : Inspect the recommended playlist and open it in the browser
//  3. [HistoryView] : Browse past recommendations from the local database
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the recommendation engine, providing
// non-blocking status reporting while detection runs.
//
// Keyboard navigation uses vim-style bindings (j/k, o, h, esc, r, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
