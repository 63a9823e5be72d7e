package prompts

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to get deterministic rendered output.
var timeNow = time.Now
