package liferay

import (
	"context"
	"strings"

	"github.com/goliatone/go-fleetform/pkg/model"
)

const myUserAccountPath = "o/headless-admin-user/v1.0/my-user-account"

// DepartmentField is the user custom field holding the department.
const DepartmentField = "department"

type userAccount struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	GivenName    string `json:"givenName"`
	FamilyName   string `json:"familyName"`
	EmailAddress string `json:"emailAddress"`
	RoleBriefs   []struct {
		Name string `json:"name"`
	} `json:"roleBriefs"`
	CustomFields []struct {
		Name        string `json:"name"`
		CustomValue struct {
			Data any `json:"data"`
		} `json:"customValue"`
	} `json:"customFields"`
}

// CurrentUser returns the signed-in user with role names and department.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var account userAccount
	if err := c.getJSON(ctx, myUserAccountPath, nil, &account); err != nil {
		return model.User{}, err
	}
	user := model.User{
		ID:    account.ID,
		Name:  strings.TrimSpace(account.Name),
		Email: account.EmailAddress,
	}
	if user.Name == "" {
		user.Name = strings.TrimSpace(account.GivenName + " " + account.FamilyName)
	}
	for _, role := range account.RoleBriefs {
		if name := strings.TrimSpace(role.Name); name != "" {
			user.Roles = append(user.Roles, name)
		}
	}
	for _, field := range account.CustomFields {
		if strings.EqualFold(field.Name, DepartmentField) {
			user.Department = model.AsString(field.CustomValue.Data)
		}
	}
	return user, nil
}
