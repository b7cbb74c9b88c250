package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// FeatureKey records a feature key under the key "feature_key".
func FeatureKey(key string) slog.Attr {
	return slog.String("feature_key", key)
}

// Variant records a resolved variant under the key "variant".
func Variant(variant string) slog.Attr {
	return slog.String("variant", variant)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// EventType records a client event name under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// Component records the SDK component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
