package logger

// NopLogger discards everything. Used by tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (l *NopLogger) Debug(module, message string, details map[string]interface{}) {}
func (l *NopLogger) Info(module, message string, details map[string]interface{})  {}
func (l *NopLogger) Warn(module, message string, details map[string]interface{})  {}
func (l *NopLogger) Error(module, message string, details map[string]interface{}) {}
func (l *NopLogger) Sync() error                                                  { return nil }
