package utils

import "errors"

var ErrorSessionNotFound = errors.New("editing session not found or expired")
