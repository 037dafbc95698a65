// Package cli constructs the prunebranch command-line interface, wiring the
// Cobra root command, the Viper configuration loader, and zap logging around
// the interactive branch pruning workflow.
package cli
