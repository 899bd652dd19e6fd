package flow

import "github.com/m3rciful/shopbot/shop/action"

// Button is a labeled next action.
type Button struct {
	Label  string
	Action action.Action
}

// Message is one outgoing message. Text uses Telegram Markdown; when Photo is set
// the text is sent as the photo caption.
type Message struct {
	Text    string
	Photo   string
	Buttons []Button
}

// Response is everything rendered for a single user action.
type Response struct {
	Messages []Message
}

// Empty reports whether the action was ignored.
func (r Response) Empty() bool {
	return len(r.Messages) == 0
}

func respond(msgs ...Message) Response {
	return Response{Messages: msgs}
}

func btn(label string, a action.Action) Button {
	return Button{Label: label, Action: a}
}

func simpleBtn(label string, k action.Kind) Button {
	return btn(label, action.Simple(k))
}
