package tracker

import (
	"errors"
	"fmt"

	"github.com/actionsum/focuswatch/pkg/window"

	"github.com/bytedance/sonic"
)

// ErrMalformedPayload means an event payload was not valid JSON of the
// expected shape. The stream cannot be resynchronised after this.
var ErrMalformedPayload = errors.New("malformed window event payload")

type windowPayload struct {
	Change    string           `json:"change"`
	Container *windowContainer `json:"container"`
}

type windowContainer struct {
	Focused          any               `json:"focused"`
	Name             string            `json:"name"`
	AppID            string            `json:"app_id"`
	WindowProperties *windowProperties `json:"window_properties"`
}

type windowProperties struct {
	Class string `json:"class"`
}

// ParseWindowEvent decodes a sway window event. A missing or non-boolean
// container.focused yields an unfocused event rather than an error.
func ParseWindowEvent(payload []byte) (window.WindowEvent, error) {
	var p windowPayload
	if err := sonic.Unmarshal(payload, &p); err != nil {
		return window.WindowEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if p.Container == nil {
		return window.WindowEvent{}, nil
	}

	focused, _ := p.Container.Focused.(bool)
	if !focused {
		return window.WindowEvent{}, nil
	}

	appName := ""
	if p.Container.WindowProperties != nil {
		appName = p.Container.WindowProperties.Class
	}
	// native wayland clients have no X11 class
	if appName == "" {
		appName = p.Container.AppID
	}

	return window.WindowEvent{
		Focused: true,
		Window: window.WindowInfo{
			AppName:     appName,
			WindowTitle: p.Container.Name,
		},
	}, nil
}
