// File: internal/conversation/relay.go
package conversation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
)

// Fixed replies returned without contacting the dialog service.
const (
	WorkspaceMessage = "The app has not been configured with a WORKSPACE_ID environment variable. " +
		"Set it to the id of the dialog workspace this service should talk to."
	NoInputMessage = "Please type something so I can respond."
)

// placeholderWorkspace is the value shipped in sample configuration files.
const placeholderWorkspace = "<workspace-id>"

// DefaultTimeout bounds one turn, every upstream call included.
const DefaultTimeout = 20 * time.Second

// Dialog sends one turn to the dialog service.
type Dialog interface {
	Message(ctx context.Context, workspaceID string, req *data.MessageRequest) (*data.MessageResponse, error)
}

// Relay runs one conversation turn: annotate, ask the dialog service,
// personalize the reply and log it.
type Relay struct {
	Dialog      Dialog
	Annotator   *Annotator
	WorkspaceID string
	Logs        data.LogStore
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Configured reports whether a workspace id has been set.
func (r *Relay) Configured() bool {
	return r.WorkspaceID != "" && r.WorkspaceID != placeholderWorkspace
}

// Message handles one turn. Errors returned are the collaborators' own,
// usually *upstream.Error.
func (r *Relay) Message(ctx context.Context, req *data.MessageRequest) (*data.MessageResponse, error) {
	if !r.Configured() {
		return fixedReply(WorkspaceMessage, nil), nil
	}
	if req == nil {
		req = &data.MessageRequest{}
	}
	if req.Input == nil || strings.TrimSpace(req.Input.Text) == "" {
		return fixedReply(NoInputMessage, req.Context), nil
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload := &data.MessageRequest{
		Input:            req.Input,
		Context:          req.Context,
		AlternateIntents: req.AlternateIntents,
	}
	if payload.Context == nil {
		payload.Context = data.NewContext()
	}

	if r.Annotator != nil {
		if err := r.Annotator.Annotate(ctx, payload.Context, payload.Input.Text); err != nil {
			r.logger().Error("annotation failed", "error", err)
			return nil, err
		}
	}

	resp, err := r.Dialog.Message(ctx, r.WorkspaceID, payload)
	if err != nil {
		r.logger().Error("dialog request failed", "error", err)
		return nil, err
	}

	if resp != nil {
		switch {
		case resp.Context == nil:
			resp.Context = payload.Context
		case resp.Context.User == nil:
			resp.Context.User = payload.Context.User
		}
	}

	answered := resp != nil && resp.Output != nil
	resp = Personalize(resp)

	if answered && r.Logs != nil {
		if err := r.Logs.Insert(data.NewLogEntry(payload, resp)); err != nil {
			r.logger().Error("failed to log conversation turn", "error", err)
		}
	}
	return resp, nil
}

func fixedReply(text string, c *data.Context) *data.MessageResponse {
	return &data.MessageResponse{
		Output:  &data.Output{Text: data.NewText(text)},
		Context: c,
	}
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
