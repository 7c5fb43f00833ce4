package logger

import "fmt"

// MockLogger records messages for assertions in tests.
type MockLogger struct {
	InfoMessages  []string
	WarnMessages  []string
	ErrorMessages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		InfoMessages:  make([]string, 0),
		WarnMessages:  make([]string, 0),
		ErrorMessages: make([]string, 0),
	}
}

func (m *MockLogger) Debugf(template string, args ...interface{}) {}

func (m *MockLogger) Infof(template string, args ...interface{}) {
	m.InfoMessages = append(m.InfoMessages, fmt.Sprintf(template, args...))
}

func (m *MockLogger) Warnf(template string, args ...interface{}) {
	m.WarnMessages = append(m.WarnMessages, fmt.Sprintf(template, args...))
}

func (m *MockLogger) Errorf(template string, args ...interface{}) {
	m.ErrorMessages = append(m.ErrorMessages, fmt.Sprintf(template, args...))
}

func (m *MockLogger) Fatalf(template string, args ...interface{}) {
	m.ErrorMessages = append(m.ErrorMessages, fmt.Sprintf(template, args...))
}

func (m *MockLogger) Sync() error { return nil }
