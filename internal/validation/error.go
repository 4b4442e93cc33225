package validation

// Error is a user-facing validation message.
type Error string

func (e Error) Error() string {
	return string(e)
}
