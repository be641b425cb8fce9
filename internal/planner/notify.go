package planner

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient, user-visible message about an operation.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Success builds a success notification.
func Success(msg string) Notification {
	return Notification{Level: LevelSuccess, Message: msg}
}

// Failure builds an error notification carrying its cause.
func Failure(msg string, err error) Notification {
	return Notification{Level: LevelError, Message: msg, Err: err}
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }
