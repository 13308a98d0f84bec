// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing a shelved library:
//  1. [LoadingView] : Run the shelving pipeline with live progress
//  2. [GenreListView] : Browse genre buckets, largest first
//  3. [TrackListView] : Inspect the tracks on one shelf
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the GenreEngine, providing non-blocking status reporting while shelving runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
