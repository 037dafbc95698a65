// Package utils houses the configuration and logging plumbing shared by the
// prunebranch command.
//
// ConfigurationLoader layers embedded defaults, an optional YAML file, and
// PRUNEBRANCH_ environment overrides through Viper; LoggerFactory builds zap
// loggers that keep standard output free for the interactive workflow.
package utils
