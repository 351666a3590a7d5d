package events

import "k8s.io/klog/v2"

// LogHandler writes every event it receives to the klog stream at a fixed
// verbosity.
type LogHandler struct {
	verbosity klog.Level
}

func NewLogHandler(verbosity klog.Level) *LogHandler {
	return &LogHandler{verbosity: verbosity}
}

func (h *LogHandler) CanHandle(eventType string) bool {
	return true
}

func (h *LogHandler) Handle(event Event) error {
	klog.V(h.verbosity).InfoS("Planning event",
		"type", event.Type(),
		"run", event.StreamID(),
		"version", event.Version(),
		"data", event.Data())
	return nil
}
