// File: internal/dialog/dialog.go
package dialog

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
	"github.com/Pedro-J-Kukul/chatrelay/internal/upstream"
)

// Version is the dialog service API version.
const Version = "2016-07-11"

// Client sends turns to the dialog service.
type Client struct {
	api *upstream.Client
}

// New returns a dialog client for the service at baseURL.
func New(baseURL, username, password string, timeout time.Duration) *Client {
	return &Client{api: upstream.New("dialog", baseURL, username, password, timeout)}
}

// Message sends one turn to a workspace and returns the dialog's reply.
func (c *Client) Message(ctx context.Context, workspaceID string, req *data.MessageRequest) (*data.MessageResponse, error) {
	path := "/v1/workspaces/" + url.PathEscape(workspaceID) + "/message"
	query := url.Values{"version": {Version}}

	var resp data.MessageResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, path, query, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
