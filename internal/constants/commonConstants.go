package constants

import "time"

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixSettings CachePrefix = "SETTINGS_ALL"
)

// AdminChannel is the chat address shared by every admin.
const AdminChannel = "admin"

// DefaultChatPollInterval is the fallback poll period for chat clients
// that cannot hold a websocket open.
const DefaultChatPollInterval = 2 * time.Second

// Site setting keys understood by the public pages.
const (
	SettingShowApplyButton   = "show_apply_button"
	SettingShowLoginButton   = "show_login_button"
	SettingWelcomePopupText  = "welcome_popup_text"
	SettingBackgroundVideo   = "background_video_url"
	SettingCompetitionIsOpen = "competition_open"
)

// Routes the access gate redirects to.
const (
	RouteLogin  = "/login"
	RouteMember = "/member"
	RouteHome   = "/"
)

// Background notification queue.
const (
	NotificationStream        = "clubhouse:notifications"
	NotificationConsumerGroup = "notifiers"
	JobApplicationSubmitted   = "application_submitted"
)
