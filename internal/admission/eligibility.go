package admission

import "time"

// Age returns the completed years between birth and at. Each is read as a
// calendar date in its own location, so a workshop at 00:30 local time on the
// birthday counts as the birthday. A child born on 29 February turns a year
// older on 1 March in common years.
func Age(birth, at time.Time) int {
	age := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		age--
	}
	return age
}

// Eligible computes the child's age at the workshop start and checks it against
// the inclusive [minAge, maxAge] band.
func Eligible(birth, start time.Time, minAge, maxAge int) (int, bool) {
	age := Age(birth, start)
	return age, minAge <= age && age <= maxAge
}
