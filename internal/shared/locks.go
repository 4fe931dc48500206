package shared

import "fmt"

// RegistrationLockKey builds redis keys for tournament registration critical
// sections. Capacity checks run under this lock.
func RegistrationLockKey(tournamentID string) string {
	return fmt.Sprintf("tournament:%s:registration:lock", tournamentID)
}
