// Package ui renders git command lifecycle events as concise console messages
// so that the command-line repository backend stays readable when the log
// format is set to console.
package ui
