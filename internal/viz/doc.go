// Package viz renders run results for the terminal.
//
// Styles are lipgloss definitions shared by the CLI. Reports format summary
// statistics, the analytical comparison, metrics and matrices as aligned
// tables. Charts draw path fans and the terminal distribution with
// asciigraph.
package viz
