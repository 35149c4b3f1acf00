package errors

// User-facing categories layered over the transport taxonomy. Service
// boundaries map every remote failure to one of these before it reaches the
// caller.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeAccessDenied       = "access_denied"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeInvalidInput       = "invalid_input"
	CodeRateLimited        = "rate_limited"
	CodeServerError        = "server_error"
	CodeNetworkError       = "network_error"
	CodeGeneric            = "error"
	CodeNotAuthenticated   = "not_authenticated"
)

// Categorize converts a transport failure into a user-facing category,
// keeping the distinguishing status code where one exists. A nil error stays
// nil.
func Categorize(context string, err error) error {
	if err == nil {
		return nil
	}
	status := StatusOf(err)
	code := CodeGeneric
	switch {
	case status == 400 || status == 422:
		code = CodeInvalidInput
	case status == 401:
		code = CodeInvalidCredentials
	case status == 403:
		code = CodeAccessDenied
	case status == 404:
		code = CodeNotFound
	case status == 409:
		code = CodeConflict
	case status == 429:
		code = CodeRateLimited
	case status >= 500:
		code = CodeServerError
	case IsCode(err, CodeNetwork):
		code = CodeNetworkError
	}
	return WrapStatus(code, context, status, err)
}
