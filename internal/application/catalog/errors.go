package catalog

import "errors"

var ErrNotFound = errors.New("Popup not found")
