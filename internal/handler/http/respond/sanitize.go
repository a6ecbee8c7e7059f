package respond

import "regexp"

var (
	// Connection strings surface in wrapped driver errors,
	// e.g. "postgres://recs:secret@db:5432/cinebox".
	dsnCredentials = regexp.MustCompile(`://([^:/\s]+):([^@\s]+)@`)

	// Slack webhook paths carry the authentication token.
	slackWebhookPath = regexp.MustCompile(`hooks\.slack\.com/services/[A-Za-z0-9/_-]+`)

	// Bearer tokens from failed session validation.
	bearerToken = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`)
)

// SanitizeError masks credentials that leak into error text before it is
// logged: DSN passwords, Slack webhook tokens, and bearer tokens.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = dsnCredentials.ReplaceAllString(msg, "://$1:****@")
	msg = slackWebhookPath.ReplaceAllString(msg, "hooks.slack.com/services/****")
	msg = bearerToken.ReplaceAllString(msg, "Bearer ****")
	return msg
}
