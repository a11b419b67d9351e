// Copyright (c) 2025 ariusbronte

package userbot

import (
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// UserField is a profile field requested alongside long poll history.
type UserField string

const (
	FieldPhoto50    UserField = "photo_50"
	FieldPhoto100   UserField = "photo_100"
	FieldOnline     UserField = "online"
	FieldScreenName UserField = "screen_name"
	FieldSex        UserField = "sex"
	FieldLastSeen   UserField = "last_seen"
	FieldVerified   UserField = "verified"
	FieldDomain     UserField = "domain"
	FieldStatus     UserField = "status"
)

// MessageType filters history by direction.
type MessageType string

const (
	MessageReceived MessageType = "received"
	MessageSent     MessageType = "sent"
)

const (
	DefaultLpVersion = 3
	DefaultMsgsLimit = 200
)

// RunConfig is the set of long poll options sent with every FetchBatch.
type RunConfig struct {
	NeedPts       bool         `toml:"need_pts" json:"need_pts"`
	LpVersion     uint         `toml:"lp_version" json:"lp_version" validate:"lte=3"`
	Fields        []UserField  `toml:"fields" json:"fields,omitempty" validate:"dive,oneof=photo_50 photo_100 online screen_name sex last_seen verified domain status"`
	PreviewLength *int64       `toml:"preview_length" json:"preview_length,omitempty" validate:"omitempty,gte=0"`
	Onlines       *bool        `toml:"onlines" json:"onlines,omitempty"`
	EventsLimit   *int64       `toml:"events_limit" json:"events_limit,omitempty" validate:"omitempty,gte=1000"`
	MsgsLimit     *int64       `toml:"msgs_limit" json:"msgs_limit,omitempty" validate:"omitempty,gte=200"`
	MaxMsgID      *int64       `toml:"max_msg_id" json:"max_msg_id,omitempty" validate:"omitempty,gt=0"`
	MessageType   *MessageType `toml:"message_type" json:"message_type,omitempty" validate:"omitempty,oneof=received sent"`
}

// DefaultRunConfig returns the configuration used until Configure is called.
func DefaultRunConfig() RunConfig {
	limit := int64(DefaultMsgsLimit)
	return RunConfig{
		NeedPts:   true,
		LpVersion: DefaultLpVersion,
		MsgsLimit: &limit,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every option against its accepted range.
func (c RunConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.TrimPrefix(fe.Namespace(), "RunConfig.")
		reason := "failed on '" + fe.Tag() + "'"
		if fe.Param() != "" {
			reason += " (" + fe.Param() + ")"
		}
		return newValidationError(field, reason)
	}
	return errors.Wrap(err, "validating run config")
}

// Clone returns a deep copy so the caller's pointers cannot alter a
// configuration that is in use.
func (c RunConfig) Clone() RunConfig {
	out := c
	out.Fields = slices.Clone(c.Fields)
	out.PreviewLength = clonePtr(c.PreviewLength)
	out.Onlines = clonePtr(c.Onlines)
	out.EventsLimit = clonePtr(c.EventsLimit)
	out.MsgsLimit = clonePtr(c.MsgsLimit)
	out.MaxMsgID = clonePtr(c.MaxMsgID)
	out.MessageType = clonePtr(c.MessageType)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v, for filling optional RunConfig fields.
func Ptr[T any](v T) *T {
	return &v
}
