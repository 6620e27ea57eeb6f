// Package gtm wraps the Tag Manager API v2 account and user permission listings.
package gtm

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/tagmanager/v2"
)

// ADMIN is the account level permission granted to Tag Manager administrators.
const ADMIN = "admin"

type Account struct {
	ID   string
	Name string
}

// Permission is the account level access of a single user. Access is empty if
// the user permission record has no account access.
type Permission struct {
	Email  string
	Access string
}

func (p Permission) IsAdmin() bool {
	return p.Access == ADMIN
}

func (a Account) String() string {
	return fmt.Sprintf("%v (%v)", a.Name, a.ID)
}

type Client struct {
	service *tagmanager.Service
}

func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	service, err := tagmanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Tag Manager client (%w)", err)
	}

	return &Client{
		service: service,
	}, nil
}

// Accounts retrieves all the Tag Manager accounts accessible to the client
// credentials, in the order returned by the API.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	accounts := []Account{}
	page := ""

	for {
		call := c.service.Accounts.List()
		if page != "" {
			call.PageToken(page)
		}

		response, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list Tag Manager accounts (%w)", err)
		}

		for _, account := range response.Account {
			if account != nil {
				accounts = append(accounts, Account{
					ID:   account.AccountId,
					Name: account.Name,
				})
			}
		}

		if page = response.NextPageToken; page == "" {
			break
		}
	}

	return accounts, nil
}

// Permissions retrieves the user permission records for a single account.
func (c *Client) Permissions(ctx context.Context, accountID string) ([]Permission, error) {
	if accountID == "" {
		return nil, fmt.Errorf("missing account ID")
	}

	parent := fmt.Sprintf("accounts/%v", accountID)
	permissions := []Permission{}
	page := ""

	for {
		call := c.service.Accounts.UserPermissions.List(parent)
		if page != "" {
			call.PageToken(page)
		}

		response, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list user permissions for account %v (%w)", accountID, err)
		}

		for _, p := range response.UserPermission {
			if p == nil {
				continue
			}

			permission := Permission{
				Email: p.EmailAddress,
			}

			if p.AccountAccess != nil {
				permission.Access = p.AccountAccess.Permission
			}

			permissions = append(permissions, permission)
		}

		if page = response.NextPageToken; page == "" {
			break
		}
	}

	return permissions, nil
}
