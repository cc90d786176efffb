package savedq

import (
	"context"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/session"
)

// Op is a saved-question mutation mirrored to the backend.
type Op int

const (
	OpAdd Op = iota + 1
	OpRemove
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Remote is the part of the backend API holding a student's saved questions.
type Remote interface {
	Profile(ctx context.Context, token string) (session.Profile, error)
	SaveQuestion(ctx context.Context, token, id string) error
	RemoveSavedQuestion(ctx context.Context, token, id string) error
}

// RemoteSync mirrors local mutations to the backend, best effort.
type RemoteSync struct {
	remote Remote
	logger core.Logger
}

func NewRemoteSync(remote Remote, logger core.Logger) *RemoteSync {
	return &RemoteSync{remote: remote, logger: logger}
}

// TrySync checks the session, then issues op for id. It never fails: an anonymous or
// rejected session makes it return early, and backend errors are logged at debug level only.
// The local set is the source of truth and is never rolled back from here.
func (rs *RemoteSync) TrySync(ctx context.Context, sess session.Session, op Op, id string) {
	if rs == nil || rs.remote == nil || !sess.HasToken() {
		return
	}
	fields := map[string]interface{}{"op": op.String(), "question_id": id}

	if _, err := rs.remote.Profile(ctx, sess.Token); err != nil {
		rs.logger.Debug("remote sync skipped: session not authenticated", err, fields, sess)
		return
	}

	var err error
	switch op {
	case OpAdd:
		err = rs.remote.SaveQuestion(ctx, sess.Token, id)
	case OpRemove:
		err = rs.remote.RemoveSavedQuestion(ctx, sess.Token, id)
	default:
		return
	}
	if err != nil {
		rs.logger.Debug("remote sync failed", err, fields, sess)
	}
}
