package handlers

import "time"

// timeFormat is the wire format every timestamp field uses, both in
// request bodies and in responses.
const timeFormat = time.RFC3339
