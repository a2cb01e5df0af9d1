//go:build !linux

package buttons

type evdevLogger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// NewEvdevButtons has no input devices to watch outside Linux.
func NewEvdevButtons(logger evdevLogger) Buttons {
	if logger != nil {
		logger.Infof("input", "hotkeys need Linux evdev; disabled")
	}
	return NewNoopButtons()
}
