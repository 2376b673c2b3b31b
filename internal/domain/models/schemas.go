package models

var SystemSettingsSchema = Schema{
	Name:  "SYSTEM_SETTINGS",
	Table: "generic_system_settings",
	PK:    "id",
	Fields: []Field{
		{Name: "id", ReadOnly: true},
		{Name: "prop_key", Validate: "required,max=100"},
		{Name: "prop_value", Validate: "max=2000"},
		{Name: "prop_type", Validate: "omitempty,oneof=String Email Number Boolean"},
		{Name: "description", Validate: "max=255"},
		{Name: "created_at", ReadOnly: true},
		{Name: "updated_at", ReadOnly: true},
	},
	DefaultOrder: "prop_key",
	Unique:       []string{"prop_key"},
}

var AddressesSchema = Schema{
	Name:  "ADDRESSES",
	Table: "addresses",
	PK:    "id",
	Fields: []Field{
		{Name: "id", ReadOnly: true},
		{Name: "line1", Validate: "required,max=255"},
		{Name: "city", Validate: "required,max=100"},
		{Name: "postal_code", Validate: "max=20"},
		{Name: "country", Validate: "max=2"},
	},
}

var UsersSchema = Schema{
	Name:  "USERS",
	Table: "users",
	PK:    "id",
	Fields: []Field{
		{Name: "id", ReadOnly: true},
		{Name: "name", Validate: "required,max=100"},
		{Name: "username", Validate: "required,max=50"},
		{Name: "email", Validate: "required,email"},
		{Name: "phone", Validate: "max=30"},
		{Name: "password_hash"},
		{Name: "role", Validate: "omitempty,oneof=admin owner user"},
		{Name: "is_active"},
		{Name: "address_id"},
		{Name: "created_at", ReadOnly: true},
		{Name: "updated_at", ReadOnly: true},
	},
	Nested: []NestedField{
		{Field: "address", Manager: "ADDRESSES", Column: "address_id"},
	},
	Hidden:       []string{"password_hash"},
	DefaultOrder: "-id",
	Unique:       []string{"username", "email"},
}

var RolesSchema = Schema{
	Name:  "ROLES",
	Table: "roles",
	PK:    "id",
	Fields: []Field{
		{Name: "id", ReadOnly: true},
		{Name: "name", Validate: "required,max=50"},
		{Name: "description", Validate: "max=255"},
	},
	DefaultOrder: "name",
	Unique:       []string{"name"},
}

var UserRolesLink = LinkSchema{
	Table:       "user_roles",
	PK:          "id",
	LeftColumn:  "user_id",
	RightColumn: "role_id",
	Extra:       []string{"assigned_by"},
}

var PartnersSchema = Schema{
	Name:  "PARTNERS",
	Table: "partners",
	PK:    "id",
	Fields: []Field{
		{Name: "id", ReadOnly: true},
		{Name: "code", Validate: "required,max=30"},
		{Name: "name", Validate: "required,max=150"},
		{Name: "status", Validate: "omitempty,oneof=active inactive"},
		{Name: "created_at", ReadOnly: true},
	},
	DefaultOrder: "-id",
	Unique:       []string{"code"},
}
