package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Toronto")
	if err != nil {
		panic(err)
	}
}

// force timezone to be Toronto because the portal renders transaction
// dates in the card holder's local time, date math done in the server's
// own timezone would shift sync window boundaries
func Now() time.Time {
	return time.Now().In(Location)
}
