package protocol

// Function is a request sent through Client.Send.
type Function interface {
	function()
}

type GetAuthorizationState struct{}

// SetParameters supplies application credentials and local settings.
type SetParameters struct {
	APIID          int32
	APIHash        string
	DatabaseDir    string
	DeviceModel    string
	AppVersion     string
	SystemLanguage string
}

type SetPhoneNumber struct{ PhoneNumber string }

type CheckCode struct{ Code string }

type CheckPassword struct{ Password string }

// GetChats answers with Chats.
type GetChats struct{ Limit int }

// GetChat answers with Chat.
type GetChat struct{ ChatID int64 }

// GetChatHistory answers with Messages, newest first. FromMessageID zero
// starts at the latest message; otherwise only strictly older messages are
// returned.
type GetChatHistory struct {
	ChatID        int64
	FromMessageID int64
	Limit         int
}

// SendMessage answers with the Message as stored by the backend.
type SendMessage struct {
	ChatID int64
	Text   string
}

type Close struct{}

func (GetAuthorizationState) function() {}
func (SetParameters) function()         {}
func (SetPhoneNumber) function()        {}
func (CheckCode) function()             {}
func (CheckPassword) function()         {}
func (GetChats) function()              {}
func (GetChat) function()               {}
func (GetChatHistory) function()        {}
func (SendMessage) function()           {}
func (Close) function()                 {}
