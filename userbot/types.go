// Copyright (c) 2025 ariusbronte

package userbot

// AttachmentType is the "type" field of a message attachment.
type AttachmentType string

const (
	AttachmentSticker  AttachmentType = "sticker"
	AttachmentPhoto    AttachmentType = "photo"
	AttachmentVoice    AttachmentType = "audio_message"
	AttachmentVideo    AttachmentType = "video"
	AttachmentAudio    AttachmentType = "audio"
	AttachmentDocument AttachmentType = "doc"
	AttachmentPoll     AttachmentType = "poll"
)

// ActionType is the "type" field of a service message action.
type ActionType string

const (
	ActionChatCreate           ActionType = "chat_create"
	ActionChatInviteUser       ActionType = "chat_invite_user"
	ActionChatKickUser         ActionType = "chat_kick_user"
	ActionChatPhotoUpdate      ActionType = "chat_photo_update"
	ActionChatPhotoRemove      ActionType = "chat_photo_remove"
	ActionChatPinMessage       ActionType = "chat_pin_message"
	ActionChatUnpinMessage     ActionType = "chat_unpin_message"
	ActionChatTitleUpdate      ActionType = "chat_title_update"
	ActionChatInviteUserByLink ActionType = "chat_invite_user_by_link"
)

// ActionTypes lists every chat action kind the router knows how to dispatch.
var ActionTypes = []ActionType{
	ActionChatCreate,
	ActionChatInviteUser,
	ActionChatKickUser,
	ActionChatPhotoUpdate,
	ActionChatPhotoRemove,
	ActionChatPinMessage,
	ActionChatUnpinMessage,
	ActionChatTitleUpdate,
	ActionChatInviteUserByLink,
}

type Attachment struct {
	Type    AttachmentType `json:"type"`
	ID      int64          `json:"id"`
	OwnerID int64          `json:"owner_id,omitempty"`
}

type Action struct {
	Type     ActionType `json:"type"`
	MemberID int64      `json:"member_id,omitempty"`
	Text     string     `json:"text,omitempty"`
	Email    string     `json:"email,omitempty"`
}

// Message is one inbound event as delivered by the transport.
type Message struct {
	ID           int64        `json:"id"`
	Date         int64        `json:"date,omitempty"`
	PeerID       int64        `json:"peer_id"`
	FromID       int64        `json:"from_id"`
	Out          bool         `json:"out,omitempty"`
	Text         string       `json:"text,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	FwdMessages  []Message    `json:"fwd_messages,omitempty"`
	ReplyMessage *Message     `json:"reply_message,omitempty"`
	Action       *Action      `json:"action,omitempty"`
}

// AttachmentsOf returns the attachments of the given type, in order.
func (m *Message) AttachmentsOf(t AttachmentType) []Attachment {
	var out []Attachment
	for _, a := range m.Attachments {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func (m *Message) HasAttachment(t AttachmentType) bool {
	for _, a := range m.Attachments {
		if a.Type == t {
			return true
		}
	}
	return false
}

// Cursor is the (ts, pts) position in the long poll event stream.
type Cursor struct {
	Ts  uint64
	Pts uint64
}

// Batch is the result of one FetchBatch call.
type Batch struct {
	Messages []Message
	NewPts   uint64
}

// Credentials authorize the transport. Either AccessToken or Login and
// Password must be set.
type Credentials struct {
	AppID       uint64
	AccessToken string
	Login       string
	Password    string
	// TwoFactor is asked for a one-time code when the account requires it.
	TwoFactor func() string
}

func (c Credentials) validate() error {
	if c.AccessToken != "" {
		return nil
	}
	if c.Login == "" {
		return newValidationError("login", "either access token or login and password are required")
	}
	if c.Password == "" {
		return newValidationError("password", "password is required when logging in with a login")
	}
	return nil
}
