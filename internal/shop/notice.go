package shop

type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeError
)

// Notice is a short user-visible message, the toast of a graphical client.
type Notice struct {
	Kind    NoticeKind
	Message string
}

type Notifier interface {
	Notify(Notice)
}

type Navigator interface {
	Navigate(path string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func navigatorOrNop(n Navigator) Navigator {
	if n == nil {
		return nopNavigator{}
	}
	return n
}
