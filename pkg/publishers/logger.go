package publishers

// Logger is the subset of the runtime logger sinks write to.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type discard struct{}

func (discard) InfoObj(string, string, interface{})  {}
func (discard) DebugObj(string, string, interface{}) {}
func (discard) ErrorObj(string, string, interface{}) {}

func orDiscard(log Logger) Logger {
	if log == nil {
		return discard{}
	}
	return log
}
