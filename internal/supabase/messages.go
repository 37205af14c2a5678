package supabase

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"linkvault/internal/domain"
)

//go:embed messages.yaml
var messagesYAML []byte

// DefaultLocale is used when a requested locale has no catalog entry.
const DefaultLocale = "pt-BR"

// Translator turns backend failures into short localized messages.
type Translator struct {
	locale  string
	catalog map[string]map[string]string
}

// NewTranslator loads the embedded catalog and selects locale.
func NewTranslator(locale string) (*Translator, error) {
	var catalog map[string]map[string]string
	if err := yaml.Unmarshal(messagesYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	if _, ok := catalog[locale]; !ok {
		locale = DefaultLocale
	}
	return &Translator{locale: locale, catalog: catalog}, nil
}

// Locale returns the active locale.
func (t *Translator) Locale() string {
	return t.locale
}

// Message returns the localized text for a category.
func (t *Translator) Message(c Category) string {
	if msg, ok := t.catalog[t.locale][c.String()]; ok {
		return msg
	}
	return t.catalog[DefaultLocale][c.String()]
}

// Notice keys for success and status messages.
const (
	NoticeLoginSuccess    = "login_success"
	NoticeGroupCreated    = "group_created"
	NoticeSubgroupCreated = "subgroup_created"
	NoticeFileCreated     = "file_created"
	NoticeItemUpdated     = "item_updated"
	NoticeItemDeleted     = "item_deleted"
	NoticeLinkCopied      = "link_copied"
	NoticeConnectionLost  = "connection_lost"
)

// Notice returns the localized text for a notice key, or the key itself if unknown.
func (t *Translator) Notice(key string) string {
	if msg, ok := t.catalog[t.locale][key]; ok {
		return msg
	}
	if msg, ok := t.catalog[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Translate classifies err and wraps it in a UserError. Already translated
// errors are returned unchanged.
func (t *Translator) Translate(err error) error {
	if err == nil {
		return nil
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return err
	}
	c := Classify(err)
	return &UserError{Category: c, Message: t.Message(c), Err: err}
}

// UserError carries the message shown to the user alongside the original cause.
type UserError struct {
	Category Category
	Message  string
	Err      error
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Is lets callers branch on domain sentinels without knowing about categories.
func (e *UserError) Is(target error) bool {
	switch e.Category {
	case CategorySessionExpired:
		return target == domain.ErrSessionExpired
	case CategoryNetwork:
		return target == domain.ErrUnavailable
	}
	return false
}
