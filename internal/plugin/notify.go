package plugin

import "github.com/denwilliams/go-wled-race/internal/logging"

// Notifier shows a one-shot message to the operator.
type Notifier interface {
	Notify(message string)
}

type LogNotifier struct{}

func (LogNotifier) Notify(message string) {
	logging.Info("%s", message)
}

// MultiNotifier fans a message out to every notifier.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(message)
		}
	}
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	f(message)
}
