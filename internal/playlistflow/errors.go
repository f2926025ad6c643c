package playlistflow

import "errors"

// ErrNotAuthenticated indicates the session holds no usable credentials;
// the caller should redirect the user to login rather than treat this as
// a failure.
var ErrNotAuthenticated = errors.New("not authenticated")
