package dispatch

import "errors"

var (
	errSignatureRequired = errors.New("dispatch: message signing required but header is unsigned")
	errSignatureMismatch = errors.New("dispatch: message signature verification failed")
)
