package repositories

import (
	"context"
	"fmt"

	intdb "apiscaffold/internal/db"
	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

func NewSystemSettingsManager(db intdb.Executor) *Manager {
	m := NewManager(db, models.SystemSettingsSchema)
	m.Filters = FilterSet{
		"prop_key":  EqualFilter("prop_key"),
		"prop_type": EqualFilter("prop_type"),
	}
	return m
}

func NewAddressesManager(db intdb.Executor) *Manager {
	m := NewManager(db, models.AddressesSchema)
	m.Filters = FilterSet{
		"city":    EqualFilter("city"),
		"country": EqualFilter("country"),
	}
	return m
}

func NewPartnersManager(db intdb.Executor) *Manager {
	m := NewManager(db, models.PartnersSchema)
	m.Filters = FilterSet{
		"code":   EqualFilter("code"),
		"name":   ContainsFilter("name"),
		"status": EqualFilter("status"),
	}
	return m
}

// NewUsersManager wires user filters, password hashing and role links.
func NewUsersManager(db intdb.Executor, userRoles *LinkManager) *Manager {
	m := NewManager(db, models.UsersSchema)
	m.Filters = FilterSet{
		"name":       ContainsFilter("name"),
		"username":   EqualFilter("username"),
		"email":      EqualFilter("email"),
		"role":       EqualFilter("role"),
		"is_active":  BooleanFilter("is_active"),
		"created_on": DateRangeFilter("created_at"),
		"search":     searchUsers,
	}
	if userRoles != nil {
		m.Filters["role_id"] = userRoles.FilterLeftByRight("id")
	}
	m.StartFiltering = restrictInactiveUsers
	m.BeforeCreate = func(_ context.Context, _ domain.Params, payload models.Record) (models.Record, error) {
		if utils.ToString(payload["password"]) == "" {
			return nil, domain.ValidationError{Msg: "password is mandatory parameter", Fields: map[string]string{"password": "password is a mandatory parameter."}}
		}
		if _, ok := payload["role"]; !ok {
			payload["role"] = "user"
		}
		if _, ok := payload["is_active"]; !ok {
			payload["is_active"] = true
		}
		return hashPassword(payload)
	}
	m.BeforeUpdate = func(_ context.Context, _ any, _ domain.Params, payload models.Record) (models.Record, error) {
		delete(payload, "password_hash")
		return hashPassword(payload)
	}
	return m
}

func hashPassword(payload models.Record) (models.Record, error) {
	pw := utils.ToString(payload["password"])
	delete(payload, "password")
	delete(payload, "password_hash")
	if pw == "" {
		return payload, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to hash password", Err: err}
	}
	payload["password_hash"] = string(hash)
	return payload, nil
}

func searchUsers(_ context.Context, qs *QuerySet, value any, _ domain.Params) (*QuerySet, error) {
	s := utils.ToString(value)
	if s == "" {
		return nil, nil
	}
	like := "%" + s + "%"
	return qs.Where("name LIKE ? OR username LIKE ? OR email LIKE ?", like, like, like), nil
}

// restrictInactiveUsers hides deactivated accounts from everyone but admins.
func restrictInactiveUsers(_ context.Context, qs *QuerySet, params domain.Params, scratch map[string]any) (*QuerySet, error) {
	if p, ok := params[domain.KeyLoggedInUser].(*domain.Principal); ok && p.Role == "admin" {
		return nil, nil
	}
	if _, explicit := params["is_active"]; explicit {
		return nil, nil
	}
	scratch["restricted"] = true
	return qs.Eq("is_active", true)
}

// NewRolesManager lists through a usage-count query when with_user_count is set.
func NewRolesManager(db intdb.Executor, userRoles *LinkManager) *Manager {
	m := NewManager(db, models.RolesSchema)
	m.Filters = FilterSet{
		"name": ContainsFilter("name"),
	}
	if userRoles != nil {
		m.Filters["user_id"] = userRoles.FilterRightByLeft("id")
		m.Raw = roleUsage{link: userRoles.Schema}
	}
	return m
}

type roleUsage struct {
	link models.LinkSchema
}

func (r roleUsage) RawQuery(_ context.Context, params domain.Params) (RawQuery, bool, error) {
	if !utils.IsTruthy(params["with_user_count"]) {
		return RawQuery{}, false, nil
	}
	where := ""
	args := []any{}
	if name := utils.ToString(params["name"]); name != "" {
		where = " WHERE r.name LIKE ?"
		args = append(args, "%"+name+"%")
	}
	sql := fmt.Sprintf(`SELECT r.id, r.name, r.description, COUNT(l.%s) AS user_count FROM roles r LEFT JOIN %s l ON l.%s = r.id%s GROUP BY r.id, r.name, r.description`,
		r.link.LeftColumn, r.link.Table, r.link.RightColumn, where)
	return RawQuery{
		SQL:     sql,
		Args:    args,
		Columns: []string{"id", "name", "description", "user_count"},
	}, true, nil
}
