// Package logger provides slog helpers shared across the featureflow SDK.
//
// New builds a JSON logger with a configurable minimum level for hosts that
// want the SDK's diagnostics; Discard builds the silent default. The attr
// helpers produce consistently named attributes for the SDK's domain
// concepts so log pipelines can filter on stable keys.
package logger
