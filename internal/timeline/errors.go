package timeline

import "errors"

// ErrOrderNotFound is returned when the order does not exist or does not
// belong to the requesting shop. The two cases are deliberately
// indistinguishable to the caller.
var ErrOrderNotFound = errors.New("order not found")
