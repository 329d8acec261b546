package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
)

func setInt(q url.Values, key string, v *int64) {
	if v != nil {
		q.Set(key, strconv.FormatInt(*v, 10))
	}
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}

func setStr(q url.Values, key string, v *string) {
	if v != nil {
		q.Set(key, *v)
	}
}

func (c *Client) Status(ctx context.Context) (*model.Status, error) {
	var s model.Status
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Settings(ctx context.Context) (*model.GeneralConfig, error) {
	var s model.GeneralConfig
	if err := c.do(ctx, http.MethodGet, "/v1/settings", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// EnsureCallback registers or updates the push-notification receiver of this
// application at the core API so that events arrive at publicURL.
func (c *Client) EnsureCallback(ctx context.Context, publicURL, sharedSecret string) error {
	appID := c.AppID()
	q := url.Values{"application_id": {strconv.FormatInt(appID, 10)}}
	var callbacks []model.Callback
	if err := c.do(ctx, http.MethodGet, "/v1/callbacks", q, nil, &callbacks); err != nil {
		return err
	}

	body := model.Callback{URL: publicURL, ApplicationID: &appID, SharedSecret: sharedSecret}
	if len(callbacks) == 0 {
		return c.do(ctx, http.MethodPost, "/v1/callbacks", nil, body, nil)
	}
	if callbacks[0].URL == publicURL {
		return nil
	}
	body.ID = callbacks[0].ID
	return c.do(ctx, http.MethodPut, "/v1/callbacks", nil, body, nil)
}

func (c *Client) GetUsers(ctx context.Context, f adapter.UserFilter) ([]model.User, error) {
	q := url.Values{}
	setInt(q, "id", f.ID)
	setStr(q, "name", f.Name)
	setBool(q, "active", f.Active)
	setBool(q, "community", f.Community)
	setInt(q, "alias_id", f.AliasID)
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/v1/users", q, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*model.User, error) {
	users, err := c.GetUsers(ctx, adapter.UserFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, fmt.Errorf("%w: user ID %d", domain.ErrNoUserFound, id)
	}
	return &users[0], nil
}

// GetUsersByAlias resolves users through their alias records in this app.
func (c *Client) GetUsersByAlias(ctx context.Context, f adapter.AliasFilter) ([]model.User, error) {
	q := url.Values{}
	setStr(q, "alias_username", f.Username)
	setBool(q, "alias_confirmed", f.Confirmed)
	setBool(q, "active", f.Active)
	q.Set("alias_application_id", strconv.FormatInt(c.AppID(), 10))
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/v1/users", q, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetAliases(ctx context.Context, f adapter.AliasFilter) ([]model.Alias, error) {
	q := url.Values{}
	setInt(q, "id", f.ID)
	setStr(q, "username", f.Username)
	setBool(q, "confirmed", f.Confirmed)
	var aliases []model.Alias
	if err := c.do(ctx, http.MethodGet, "/v1/aliases", q, nil, &aliases); err != nil {
		return nil, err
	}
	return aliases, nil
}

func (c *Client) GetApplication(ctx context.Context, id int64) (*model.Application, error) {
	q := url.Values{"id": {strconv.FormatInt(id, 10)}}
	var apps []model.Application
	if err := c.do(ctx, http.MethodGet, "/v1/applications", q, nil, &apps); err != nil {
		return nil, err
	}
	if len(apps) != 1 {
		return nil, fmt.Errorf("%w: application ID %d", domain.ErrNotFound, id)
	}
	return &apps[0], nil
}

// CreateAppUser creates a fresh core user together with a confirmed alias
// for this application.
func (c *Client) CreateAppUser(ctx context.Context, name, appUsername string) (*model.User, error) {
	body := map[string]interface{}{"name": name}
	var user model.User
	if err := c.do(ctx, http.MethodPost, "/v1/users", nil, body, &user); err != nil {
		return nil, err
	}
	if _, err := c.CreateAlias(ctx, user.ID, appUsername, true); err != nil {
		return nil, err
	}
	return c.GetUser(ctx, user.ID)
}

func (c *Client) CreateAlias(ctx context.Context, userID int64, appUsername string, confirmed bool) (*model.Alias, error) {
	body := map[string]interface{}{
		"user_id":        userID,
		"application_id": c.AppID(),
		"username":       appUsername,
		"confirmed":      confirmed,
	}
	var alias model.Alias
	if err := c.do(ctx, http.MethodPost, "/v1/aliases", nil, body, &alias); err != nil {
		return nil, err
	}
	return &alias, nil
}

func (c *Client) ConfirmAlias(ctx context.Context, aliasID int64) (*model.Alias, error) {
	body := map[string]interface{}{"id": aliasID, "confirmed": true}
	var alias model.Alias
	if err := c.do(ctx, http.MethodPut, "/v1/aliases", nil, body, &alias); err != nil {
		return nil, err
	}
	return &alias, nil
}

func (c *Client) DeleteAlias(ctx context.Context, aliasID, issuerID int64) error {
	body := map[string]interface{}{"id": aliasID, "issuer": issuerID}
	return c.do(ctx, http.MethodDelete, "/v1/aliases", nil, body, nil)
}
