package ircsession

import (
	"sync"

	"github.com/goshuirc/ircsession/lib/ircclient"
)

// HookEmitter fans session events out to the components registered for them.
type HookEmitter struct {
	mu         sync.RWMutex
	Registered map[string][]func(interface{})
}

func MakeHookEmitter() HookEmitter {
	return HookEmitter{
		Registered: make(map[string][]func(interface{})),
	}
}

func (hooks *HookEmitter) Dispatch(hookName string, data interface{}) {
	hooks.mu.RLock()
	callbacks := hooks.Registered[hookName]
	hooks.mu.RUnlock()

	for _, p := range callbacks {
		p(data)
	}
}

func (hooks *HookEmitter) Register(hookName string, p func(interface{})) {
	hooks.mu.Lock()
	defer hooks.mu.Unlock()

	if hooks.Registered == nil {
		hooks.Registered = make(map[string][]func(interface{}))
	}
	hooks.Registered[hookName] = append(hooks.Registered[hookName], p)
}

// Sink returns a session sink that dispatches everything it receives as
// hooks tagged with the given network name.
func (hooks *HookEmitter) Sink(network string) ircclient.Sink {
	return &hookSink{
		network: network,
		hooks:   hooks,
	}
}

var HookMessageName = "session.message"

type HookMessage struct {
	Network string
	Message *ircclient.Message
}

var HookStateName = "session.state"

type HookState struct {
	Network string
	State   ircclient.State
}

var HookInfoName = "session.info"

type HookInfo struct {
	Network string
	Info    map[string]string
}

var HookSocketErrorName = "session.socketerror"

type HookSocketError struct {
	Network string
	Err     error
}

type hookSink struct {
	network string
	hooks   *HookEmitter
}

func (sink *hookSink) OnMessage(msg *ircclient.Message) {
	sink.hooks.Dispatch(HookMessageName, &HookMessage{Network: sink.network, Message: msg})
}

func (sink *hookSink) OnStateChanged(state ircclient.State) {
	sink.hooks.Dispatch(HookStateName, &HookState{Network: sink.network, State: state})
}

func (sink *hookSink) OnSessionInfo(info map[string]string) {
	sink.hooks.Dispatch(HookInfoName, &HookInfo{Network: sink.network, Info: info})
}

func (sink *hookSink) OnSocketError(err error) {
	sink.hooks.Dispatch(HookSocketErrorName, &HookSocketError{Network: sink.network, Err: err})
}
