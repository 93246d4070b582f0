package utils

import "fmt"

// Shared infrastructure error codes. Entity packages declare their own codes
// in the 100+ range so support can locate the failing handler from the code
// printed to the user.
const (
	CANNOT_CONNECT_TO_MONGODB = iota + 1
	CANNOT_CONNECT_TO_REDIS
	CANNOT_CONNECT_TO_MYSQL
	INVALID_ID_FORMAT
)

func SendInternalError(internalErrorCode int) string {
	return fmt.Sprintf("Une erreur interne est survenue. Veuillez réessayer plus tard (Code: %d)", internalErrorCode)
}
