package domain

import "errors"

var (
	// ErrInvalidMealContext indicates the meal context is not a known label
	ErrInvalidMealContext = errors.New("mealType must be 'empty stomach' or 'after meal'")

	// ErrInvalidLevel indicates the level is not an integer
	ErrInvalidLevel = errors.New("sugarLevel must be an integer")

	// ErrLevelOutOfRange indicates the level is outside [0, 1000]
	ErrLevelOutOfRange = errors.New("sugarLevel out of range")

	// ErrStorageUnavailable indicates the backing store cannot be reached or written
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInsertFailed indicates a write succeeded but the row could not be read back
	ErrInsertFailed = errors.New("insert failed: created reading not found")

	// ErrInvalidConfig indicates the storage configuration is missing or wrong
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsValidationError reports whether err is caused by bad client input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidMealContext) ||
		errors.Is(err, ErrInvalidLevel) ||
		errors.Is(err, ErrLevelOutOfRange)
}
