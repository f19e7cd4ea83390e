package constants

const (
	MsgPendingApproval   = "Your account is pending approval"
	MsgInvalidLogin      = "Invalid email or password"
	MsgLastAdmin         = "Cannot remove the last admin"
	MsgTeamFull          = "Team full"
	MsgAlreadySignedUp   = "Already signed up for this robot"
	MsgNotAuthenticated  = "Please log in"
	MsgAdminRequired     = "Admin access required"
	MsgApplicationExists = "Application already submitted"
	MsgTooManyRequests   = "Too many requests"
)

// Failure messages surfaced to the dashboards. The triggering state is
// left unchanged when one of these is returned.
const (
	MsgFailedSubmitApplication = "Failed to submit application"
	MsgFailedAccept            = "Failed to accept application"
	MsgFailedReject            = "Failed to reject application"
	MsgFailedRemoveMember      = "Failed to remove member"
	MsgFailedUpdateRole        = "Failed to update role"
	MsgFailedLoadDashboard     = "Failed to load dashboard"
	MsgFailedSendMessage       = "Failed to send message"
	MsgFailedSignup            = "Failed to sign up for robot"
	MsgFailedSaveSetting       = "Failed to save setting"
	MsgFailedSignIn            = "Failed to sign in"
	MsgFailedSignUp            = "Failed to sign up"
	MsgFailedSignOut           = "Failed to sign out"
	MsgFailedLoadSession       = "Failed to load session"
	MsgFailedResetPassword     = "Failed to send password reset"
	MsgFailedUpdatePassword    = "Failed to update password"
	MsgFailedLoadContent       = "Failed to load content"
	MsgFailedSaveContent       = "Failed to save content"
	MsgFailedUpdateProfile     = "Failed to update profile"
	MsgFailedUpdateRecords     = "Failed to update member records"
	MsgFailedLoadChat          = "Failed to load messages"
	MsgFailedScheduleInterview = "Failed to schedule interview"
	MsgFailedCreateMember      = "Failed to create member"
	MsgFailedUpdateGroup       = "Failed to update group"
	MsgFailedLoadApplications  = "Failed to load applications"
)

const MsgInvalidRequestBody = "Invalid request body"
