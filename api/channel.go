package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func settingPath(settingID, action string) string {
	return fmt.Sprintf("/channel/settings/%s/%s", url.PathEscape(settingID), action)
}

// Connect starts pairing for a channel setting.
func (c *Client) Connect(ctx context.Context, settingID string) (*ConnectResponse, error) {
	var resp ConnectResponse
	if err := c.Call(ctx, http.MethodPost, settingPath(settingID, "connect"), struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Restart tears down and restarts pairing for a channel setting.
func (c *Client) Restart(ctx context.Context, settingID string) (*ConnectResponse, error) {
	var resp ConnectResponse
	if err := c.Call(ctx, http.MethodPost, settingPath(settingID, "restart"), struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status reads the current pairing status.
func (c *Client) Status(ctx context.Context, settingID string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.Call(ctx, http.MethodGet, settingPath(settingID, "status"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
