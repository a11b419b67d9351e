// Copyright (c) 2025 ariusbronte

package userbot

// Category is the mutually exclusive classification of an inbound event.
type Category uint8

const (
	CategoryText Category = iota + 1
	CategoryReply
	CategoryForward
	CategorySticker
	CategoryPhoto
	CategoryVoice
	CategoryVideo
	CategoryAudio
	CategoryDocument
	CategoryPoll
	CategoryChatCreate
	CategoryChatInviteUser
	CategoryChatKickUser
	CategoryChatPhotoUpdate
	CategoryChatPhotoRemove
	CategoryChatPinMessage
	CategoryChatUnpinMessage
	CategoryChatTitleUpdate
	CategoryChatInviteUserByLink
)

var categoryNames = map[Category]string{
	CategoryText:                 "text",
	CategoryReply:                "reply",
	CategoryForward:              "forward",
	CategorySticker:              "sticker",
	CategoryPhoto:                "photo",
	CategoryVoice:                "voice",
	CategoryVideo:                "video",
	CategoryAudio:                "audio",
	CategoryDocument:             "document",
	CategoryPoll:                 "poll",
	CategoryChatCreate:           "chat_create",
	CategoryChatInviteUser:       "chat_invite_user",
	CategoryChatKickUser:         "chat_kick_user",
	CategoryChatPhotoUpdate:      "chat_photo_update",
	CategoryChatPhotoRemove:      "chat_photo_remove",
	CategoryChatPinMessage:       "chat_pin_message",
	CategoryChatUnpinMessage:     "chat_unpin_message",
	CategoryChatTitleUpdate:      "chat_title_update",
	CategoryChatInviteUserByLink: "chat_invite_user_by_link",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, bool) {
	for c, name := range categoryNames {
		if name == s {
			return c, true
		}
	}
	return 0, false
}

// IsChatAction reports whether c is one of the chat membership categories.
func (c Category) IsChatAction() bool {
	return c >= CategoryChatCreate && c <= CategoryChatInviteUserByLink
}

var actionCategories = map[ActionType]Category{
	ActionChatCreate:           CategoryChatCreate,
	ActionChatInviteUser:       CategoryChatInviteUser,
	ActionChatKickUser:         CategoryChatKickUser,
	ActionChatPhotoUpdate:      CategoryChatPhotoUpdate,
	ActionChatPhotoRemove:      CategoryChatPhotoRemove,
	ActionChatPinMessage:       CategoryChatPinMessage,
	ActionChatUnpinMessage:     CategoryChatUnpinMessage,
	ActionChatTitleUpdate:      CategoryChatTitleUpdate,
	ActionChatInviteUserByLink: CategoryChatInviteUserByLink,
}

// attachmentOrder is the order attachments are inspected in; the first type
// present decides the category.
var attachmentOrder = []struct {
	typ      AttachmentType
	category Category
}{
	{AttachmentSticker, CategorySticker},
	{AttachmentPhoto, CategoryPhoto},
	{AttachmentVoice, CategoryVoice},
	{AttachmentVideo, CategoryVideo},
	{AttachmentAudio, CategoryAudio},
	{AttachmentDocument, CategoryDocument},
	{AttachmentPoll, CategoryPoll},
}

// Classify maps an event to exactly one category. Priority: chat action,
// forwarded messages, reply, attachments (sticker, photo, voice, video,
// audio, document, poll), then plain text. Messages without text still
// classify as text.
func Classify(m *Message) (Category, error) {
	if m.Action != nil {
		c, ok := actionCategories[m.Action.Type]
		if !ok {
			return 0, newRoutingError(m, "unknown chat action "+string(m.Action.Type))
		}
		return c, nil
	}

	if len(m.FwdMessages) > 0 {
		return CategoryForward, nil
	}

	if m.ReplyMessage != nil {
		return CategoryReply, nil
	}

	for _, a := range attachmentOrder {
		if m.HasAttachment(a.typ) {
			return a.category, nil
		}
	}

	return CategoryText, nil
}
