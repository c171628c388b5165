package orders

import (
	"context"

	"bitbucket.org/mmdatafocus/transfer_console/config"
	"bitbucket.org/mmdatafocus/transfer_console/models"
	"bitbucket.org/mmdatafocus/transfer_console/session"
	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/sirupsen/logrus"
)

// Submitter drives the one-shot submission of a workspace:
// Editing -> Submitting -> Committed, or back to Editing with the workspace
// value untouched on any failure. The Submitting status is stored before
// the network call so a second submit fired while the first is in flight is
// rejected; a per-workspace Redis lock covers a second console instance.
type Submitter struct {
	client *Client
}

func NewSubmitter(client *Client) *Submitter {
	return &Submitter{client: client}
}

// Submit validates the session's workspace, posts it and commits the
// session. On any error the workspace is exactly the pre-call snapshot so
// the user can retry without re-entering data.
func (s *Submitter) Submit(ctx context.Context, store *session.Store, sessionId string) (*SubmissionResult, error) {
	logger := config.GetLogger()
	debug := config.DebugTransferWorkspace()

	// Transition to Submitting before the network call. ToSubmissionPayload
	// re-checks validation and rejects re-entrant calls itself.
	var payload *models.SubmissionPayload
	var snapshot models.AllocationWorkspace
	_, err := store.Update(sessionId, func(sess *session.Session) error {
		var err error
		payload, err = sess.Workspace.ToSubmissionPayload()
		if err != nil {
			return err
		}
		snapshot = sess.Workspace
		submitting, err := sess.Workspace.BeginSubmission()
		if err != nil {
			return err
		}
		sess.Workspace = submitting
		return nil
	})
	if err != nil {
		return nil, err
	}

	release, err := utils.WorkspaceLock(ctx, snapshot.ID, "orders", "Submit")
	if err != nil {
		s.abort(store, sessionId, snapshot)
		return nil, err
	}
	defer release()

	if debug {
		fields := logrus.Fields{
			"field":              "Submit",
			"workspace_id":       snapshot.ID,
			"source_location_id": payload.SourceLocationId,
			"destinations_count": len(payload.Destinations),
			"total_amount":       snapshot.Aggregate().TotalAmount,
		}
		if sid, ok := utils.GetSessionIdFromContext(ctx); ok {
			fields["session_id"] = sid
		}
		if userId, ok := utils.GetUserIdFromContext(ctx); ok {
			fields["user_id"] = userId
		}
		logger.WithFields(fields).Info("begin transfer workspace submission")
	}

	result, err := s.client.CreateOrder(ctx, payload)
	if err != nil {
		if debug {
			logger.WithFields(logrus.Fields{
				"field":        "Submit",
				"workspace_id": snapshot.ID,
				"stage":        "create_order",
				"error":        err.Error(),
			}).Error("transfer submission failed; workspace preserved for retry")
		}
		// Timeouts and backend rejections land here too: the session gets
		// its pre-call snapshot back in Editing state.
		s.abort(store, sessionId, snapshot)
		return nil, err
	}

	if _, err := store.Update(sessionId, func(sess *session.Session) error {
		sess.Workspace = sess.Workspace.CompleteSubmission()
		sess.PendingBatch = nil
		return nil
	}); err != nil {
		// The order was created; losing the session record afterwards is
		// only a cosmetic problem.
		config.LogError(logger, "orders", "Submit", "commit session", sessionId, err)
	}

	if debug {
		logger.WithFields(logrus.Fields{
			"field":        "Submit",
			"workspace_id": snapshot.ID,
			"order_id":     result.OrderId,
		}).Info("transfer workspace committed")
	}

	return result, nil
}

func (s *Submitter) abort(store *session.Store, sessionId string, snapshot models.AllocationWorkspace) {
	if _, err := store.Update(sessionId, func(sess *session.Session) error {
		sess.Workspace = snapshot
		return nil
	}); err != nil {
		config.LogError(config.GetLogger(), "orders", "abort", "restore session", sessionId, err)
	}
}
