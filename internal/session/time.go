package session

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control the sweep's idea of idle time.
var timeNow = time.Now
