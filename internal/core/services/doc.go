// Package services implements the driving port interfaces.
// Services contain the core logic and orchestrate calls to driven ports
// (adapters). They also emit the diagnostics callers see in verbose mode.
package services
