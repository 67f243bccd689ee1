package protocol

import "fmt"

// Object is anything a Client delivers.
type Object interface {
	object()
}

// AuthState is a step of the authorization handshake.
type AuthState interface {
	authState()
}

type (
	AuthWaitParameters  struct{}
	AuthWaitPhoneNumber struct{}
	AuthWaitCode        struct{}
	AuthWaitPassword    struct{ Hint string }
	// AuthWaitOtherDevice asks the user to confirm the login from another
	// device, usually by scanning Link as a QR code.
	AuthWaitOtherDevice struct{ Link string }
	AuthReady           struct{}
	AuthLoggingOut      struct{}
	AuthClosing         struct{}
	AuthClosed          struct{}
)

func (AuthWaitParameters) authState()  {}
func (AuthWaitPhoneNumber) authState() {}
func (AuthWaitCode) authState()        {}
func (AuthWaitPassword) authState()    {}
func (AuthWaitOtherDevice) authState() {}
func (AuthReady) authState()           {}
func (AuthLoggingOut) authState()      {}
func (AuthClosing) authState()         {}
func (AuthClosed) authState()          {}

// UpdateAuthorizationState is sent on every auth transition and as the
// answer to GetAuthorizationState.
type UpdateAuthorizationState struct{ State AuthState }

type UpdateNewMessage struct{ Message Message }

type UpdateChatTitle struct {
	ChatID int64
	Title  string
}

type UpdateNewChat struct{ Chat Chat }

// Chats lists chat ids, most recent first.
type Chats struct {
	TotalCount int
	ChatIDs    []int64
}

type Chat struct {
	ID    int64
	Title string
}

// Messages is a history page, newest first.
type Messages struct {
	TotalCount int
	Messages   []Message
}

type Message struct {
	ID      int64
	ChatID  int64
	Sender  Sender
	Date    int64
	Content Content
}

// Sender is SenderUser or SenderChat.
type Sender interface {
	sender()
}

type SenderUser struct {
	UserID int64
	Name   string
}

type SenderChat struct{ ChatID int64 }

func (SenderUser) sender() {}
func (SenderChat) sender() {}

// Content is MessageText or MessageUnsupported.
type Content interface {
	content()
}

type MessageText struct{ Text string }

type MessageUnsupported struct{ Kind string }

func (MessageText) content()        {}
func (MessageUnsupported) content() {}

type Ok struct{}

// Error is an error response.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Message)
}

func (UpdateAuthorizationState) object() {}
func (UpdateNewMessage) object()         {}
func (UpdateChatTitle) object()          {}
func (UpdateNewChat) object()            {}
func (Chats) object()                    {}
func (Chat) object()                     {}
func (Messages) object()                 {}
func (Message) object()                  {}
func (Ok) object()                       {}
func (*Error) object()                   {}
