// Package prompt renders terminal prompts with charmbracelet/huh.
package prompt
