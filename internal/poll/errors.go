package poll

import "github.com/pkg/errors"

// User-facing rejections. None of these leaves any state change behind;
// handlers convert them to an ephemeral message for the acting user.
var (
	ErrPollClosed        = errors.New("poll is closed")
	ErrVoteLimitExceeded = errors.New("vote limit exceeded")
	ErrPollNotFound      = errors.New("poll not found")
	ErrDuplicateOption   = errors.New("option already exists")
	ErrNoOptions         = errors.New("poll needs at least one option")
)
