package audit

// Categories group event types for filtering.
const (
	CategoryAuth    = "auth"
	CategoryAdmin   = "admin"
	CategoryContent = "content"
	CategoryQuote   = "quote"
)

const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginLockedOut           = "login_locked_out"
	EventLogout                   = "logout"
	EventRegistered               = "registered"
	EventPasswordChanged          = "password_changed"

	EventUserCreated       = "user_created"
	EventUserUpdated       = "user_updated"
	EventUserDisabled      = "user_disabled"
	EventUserEnabled       = "user_enabled"
	EventUserDeleted       = "user_deleted"
	EventUserPasswordReset = "password_reset"
	EventMessageRead       = "message_read"
	EventMessageGone       = "message_deleted"

	EventPageCreated    = "page_created"
	EventPageDeleted    = "page_deleted"
	EventPageMetaEdited = "page_meta_updated"
	EventSectionAdded   = "section_added"
	EventSectionEdited  = "section_updated"
	EventSectionMoved   = "section_moved"
	EventSectionRemoved = "section_removed"
	EventItemsEdited    = "section_items_updated"

	EventQuoteSubmitted     = "quote_submitted"
	EventQuoteStatusChanged = "quote_status_changed"
)

var catalog = []struct {
	category string
	events   []string
}{
	{CategoryAuth, []string{
		EventLoginSuccess, EventLoginFailedUserNotFound, EventLoginFailedWrongPassword,
		EventLoginFailedUserDisabled, EventLoginLockedOut, EventLogout, EventRegistered,
		EventPasswordChanged,
	}},
	{CategoryAdmin, []string{
		EventUserCreated, EventUserUpdated, EventUserDisabled, EventUserEnabled,
		EventUserDeleted, EventUserPasswordReset, EventMessageRead, EventMessageGone,
	}},
	{CategoryContent, []string{
		EventPageCreated, EventPageDeleted, EventPageMetaEdited, EventSectionAdded,
		EventSectionEdited, EventSectionMoved, EventSectionRemoved, EventItemsEdited,
	}},
	{CategoryQuote, []string{EventQuoteSubmitted, EventQuoteStatusChanged}},
}

// EventTypes lists the event types of category, or of every category when
// it is empty. ok is false for an unknown category.
func EventTypes(category string) (types []string, ok bool) {
	for _, c := range catalog {
		if category == "" {
			types = append(types, c.events...)
		} else if c.category == category {
			return append([]string(nil), c.events...), true
		}
	}
	return types, category == ""
}
