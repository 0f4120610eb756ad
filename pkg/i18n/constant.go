package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_PERMISSION_DENIED = "error.permission.denied"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_EXIST             = "error.exist"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"

	ERROR_INVALID_ACCOUNT          = "error.invalid.account"
	ERROR_EMAIL_ALREADY_REGISTERED = "error.email_has_already_registed"

	ERROR_ALREADY_INVITED = "error.already_invited"
	ERROR_ALREADY_APPLIED = "error.already_applied"
	ERROR_ALREADY_MEMBER  = "error.already_member"

	ERROR_REQUEST_INVALID_ACTION = "error.request.invalid_action"
	ERROR_REQUEST_RESEND_LIMIT   = "error.request.resend_limit"
	ERROR_REQUEST_COOLDOWN       = "error.request.cooldown_active"
	ERROR_REQUEST_ROLE_MISSING   = "error.request.role_missing"
	ERROR_REQUEST_CONFLICT       = "error.request.conflict"
)
