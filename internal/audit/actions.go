package audit

// Audit actions.
const (
	ActionLoginSuccess        = "login_success"
	ActionLoginFailure        = "login_failure"
	ActionLogout              = "logout"
	ActionSignUp              = "signup"
	ActionApplicationSubmit   = "application_submitted"
	ActionApplicationApproved = "application_approved"
	ActionApplicationRejected = "application_rejected"
	ActionMemberCreated       = "member_created"
	ActionChurchUpdated       = "church_updated"
	ActionEventCreated        = "event_created"
	ActionInventoryCreated    = "inventory_created"
	ActionFileRegistered      = "file_registered"
)

// Audit resources.
const (
	ResourceAuth        = "auth"
	ResourceApplication = "church_application"
	ResourceProfile     = "profile"
	ResourceChurch      = "church"
	ResourceEvent       = "event"
	ResourceInventory   = "inventory_item"
	ResourceFile        = "file"
)
