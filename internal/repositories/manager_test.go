package repositories

import (
	"context"
	"errors"
	"testing"

	"apiscaffold/internal/domain"
	"apiscaffold/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var partnerCols = []string{"id", "code", "name", "status", "created_at"}

func newMock(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewPartnersManager(sqlDB), mock
}

func TestListUsesOnlyAllowListedFiltersAndSortKeys(t *testing.T) {
	m, mock := newMock(t)

	mock.ExpectQuery("SELECT id, code, name, status, created_at FROM partners WHERE (status = ?) ORDER BY name DESC, code ASC").
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows(partnerCols).AddRow(int64(2), "P2", "Zeta", "active", nil))

	res, err := m.List(context.Background(), domain.Params{
		"status":   "active",
		"bogus":    "drop table",
		"order_by": "-name,code",
		"fields":   "id,name",
	})
	require.NoError(t, err)
	assert.False(t, res.Pagination)
	assert.Len(t, res.Data, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPaginatesWithCountThenWindow(t *testing.T) {
	m, mock := newMock(t)

	mock.ExpectQuery("SELECT COUNT(*) FROM partners").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery("SELECT id, code, name, status, created_at FROM partners ORDER BY id DESC LIMIT 10 OFFSET 10").
		WillReturnRows(sqlmock.NewRows(partnerCols).AddRow(int64(15), "P15", "Fifteen", "active", nil))

	res, err := m.List(context.Background(), domain.Params{"page": "2"})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Count)
	assert.True(t, res.PageInfo.HasNext)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRejectsUnknownSortField(t *testing.T) {
	m, _ := newMock(t)
	_, err := m.List(context.Background(), domain.Params{"order_by": "password"})
	assert.True(t, domain.IsValidation(err))
}

func TestScratchDroppedEvenWhenFilterFails(t *testing.T) {
	m, _ := newMock(t)
	boom := errors.New("boom")
	var seen map[string]any
	m.StartFiltering = func(_ context.Context, qs *QuerySet, params domain.Params, scratch map[string]any) (*QuerySet, error) {
		scratch["started"] = true
		seen = m.Scratch(params)
		return nil, nil
	}
	m.Filters["code"] = func(context.Context, *QuerySet, any, domain.Params) (*QuerySet, error) {
		return nil, boom
	}

	_, err := m.List(context.Background(), domain.Params{"code": "X"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, true, seen["started"])
	assert.Equal(t, 0, m.scratch.size())
}

func TestRetrieveMissingReturnsNil(t *testing.T) {
	m, mock := newMock(t)
	mock.ExpectQuery("SELECT id, code, name, status, created_at FROM partners WHERE (id = ?) ORDER BY id DESC LIMIT 1").
		WithArgs("99").
		WillReturnRows(sqlmock.NewRows(partnerCols))

	rec, err := m.Retrieve(context.Background(), "99")
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrieveByNotFound(t *testing.T) {
	m, mock := newMock(t)
	mock.ExpectQuery("SELECT id, code, name, status, created_at FROM partners WHERE (code = ?) ORDER BY id DESC LIMIT 2").
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows(partnerCols))

	_, err := m.RetrieveBy(context.Background(), map[string]any{"code": "NOPE"})
	assert.True(t, domain.IsNotFound(err))
}

func TestDeleteIsIdempotent(t *testing.T) {
	m, mock := newMock(t)
	mock.ExpectExec("DELETE FROM partners WHERE id = ?").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM partners WHERE id = ?").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := m.Delete(context.Background(), int64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.Delete(context.Background(), int64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSkipsReadOnlyAndPK(t *testing.T) {
	m, mock := newMock(t)
	mock.ExpectExec("UPDATE partners SET name = ?, status = ? WHERE id = ?").
		WithArgs("Acme", "inactive", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := m.Update(context.Background(), "7", domain.Params{}, models.Record{
		"id": "7", "name": "Acme", "status": "inactive", "created_at": "2020-01-01", "page": "2",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidatesFields(t *testing.T) {
	m, _ := newMock(t)
	_, err := m.Create(context.Background(), domain.Params{}, models.Record{"name": "No Code", "status": "weird"})

	var ve domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "code")
	assert.Contains(t, ve.Fields, "status")
}

func TestCreateRejectsUndeclaredNestedObject(t *testing.T) {
	m, _ := newMock(t)
	_, err := m.Create(context.Background(), domain.Params{}, models.Record{"code": "P1", "name": "x", "owner": map[string]any{"id": 1}})
	assert.True(t, domain.IsValidation(err))
}

func TestCreateSavesNestedObjectFirst(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer sqlDB.Close()

	reg := NewRegistry()
	reg.Register("addresses", NewAddressesManager(sqlDB))
	users := NewUsersManager(sqlDB, nil)
	reg.Register("users", users)

	mock.ExpectExec("INSERT INTO addresses (city, line1) VALUES (?, ?)").
		WithArgs("Bandung", "Jl. Merdeka 1").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE (username = ?)").WithArgs("ann").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE (email = ?)").WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO users (address_id, email, is_active, name, password_hash, role, username) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WithArgs(int64(5), "ann@example.com", true, "Ann", sqlmock.AnyArg(), "user", "ann").
		WillReturnResult(sqlmock.NewResult(9, 1))

	rec, err := users.Create(context.Background(), domain.Params{}, models.Record{
		"name":     "Ann",
		"username": "ann",
		"email":    "ann@example.com",
		"password": "s3cret!",
		"address":  map[string]any{"line1": "Jl. Merdeka 1", "city": "Bandung"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), rec["id"])
	assert.Equal(t, int64(5), rec["address_id"])
	assert.NotContains(t, rec, "password")
	assert.NotContains(t, rec, "address")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryFirstRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	a := NewManager(nil, models.RolesSchema)
	b := NewManager(nil, models.RolesSchema)

	assert.True(t, reg.Register("roles", a))
	assert.False(t, reg.Register("ROLES", b))

	got, err := reg.Get("Roles")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = reg.Get("missing")
	assert.True(t, domain.IsConfiguration(err))
}

func TestValidateMandatory(t *testing.T) {
	err := ValidateMandatory(domain.Params{"a": "1", "b": " "}, "a", "b")
	var ve domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "b is mandatory parameter", ve.Msg)

	err = ValidateMandatory(domain.Params{}, "email", "password")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email, password are mandatory parameters", ve.Msg)
	assert.Equal(t, "password is a mandatory parameter.", ve.Fields["password"])

	assert.NoError(t, ValidateMandatory(domain.Params{"a": 1}, "a"))
}

func TestRolesRawPathWhenRequested(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer sqlDB.Close()

	roles := NewRolesManager(sqlDB, NewLinkManager(sqlDB, models.UserRolesLink))
	src := "SELECT r.id, r.name, r.description, COUNT(l.user_id) AS user_count FROM roles r LEFT JOIN user_roles l ON l.role_id = r.id GROUP BY r.id, r.name, r.description"

	mock.ExpectQuery("SELECT count(*) FROM (" + src + ") AS t").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, name, description, user_count FROM (" + src + ") AS t ORDER BY id DESC LIMIT 10").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "user_count"}).AddRow(int64(1), "admin", "", int64(3)))

	res, err := roles.List(context.Background(), domain.Params{"with_user_count": "yes", "page": "1"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, int64(3), res.Data[0]["user_count"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsMistypedValues(t *testing.T) {
	m, mock := newMock(t)

	_, err := m.Create(context.Background(), domain.Params{}, models.Record{"code": "P1", "name": true})
	var ve domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name must be a string.", ve.Fields["name"])

	_, err = m.Create(context.Background(), domain.Params{}, models.Record{"code": "P1", "name": "Acme", "status": 5.0})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields["status"], "must be one of")

	_, err = m.Create(context.Background(), domain.Params{}, models.Record{"code": []any{"P1"}, "name": "Acme"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "code")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAcceptsNumericStringField(t *testing.T) {
	m, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT(*) FROM partners WHERE (code = ?)").WithArgs(float64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO partners (code, name) VALUES (?, ?)").WithArgs(float64(42), "Acme").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := m.Create(context.Background(), domain.Params{}, models.Record{"code": float64(42), "name": "Acme"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConflictsOnExistingUniqueValue(t *testing.T) {
	m, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT(*) FROM partners WHERE (code = ?)").WithArgs("P1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := m.Create(context.Background(), domain.Params{}, models.Record{"code": "P1", "name": "Acme"})
	assert.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), `code "P1" already exists`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	m, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT(*) FROM partners WHERE (status = ?)").WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT(*) FROM partners WHERE (status = ?)").WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := m.Exists(context.Background(), map[string]any{"status": "active"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Exists(context.Background(), map[string]any{"status": "gone"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Exists(context.Background(), map[string]any{"password": "x"})
	assert.True(t, domain.IsValidation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWhere(t *testing.T) {
	m, mock := newMock(t)

	_, err := m.DeleteWhere(context.Background(), nil)
	assert.True(t, domain.IsValidation(err), "empty filter")

	_, err = m.DeleteWhere(context.Background(), map[string]any{"bogus": "1"})
	assert.True(t, domain.IsValidation(err), "unknown column")

	mock.ExpectExec("DELETE FROM partners WHERE (status = ?)").WithArgs("inactive").
		WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := m.DeleteWhere(context.Background(), map[string]any{"status": "inactive"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
