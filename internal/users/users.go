// Package users is the sample entity served by the demo store and API.
//
// It registers the User filter and sort fields with the schema builder and
// converts User structs to value records for the executors.
package users

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/value"
)

// Entity is the registered entity name; Resource is its API path segment.
const (
	Entity   = "User"
	Resource = "users"
)

// Status is the account state.
type Status int64

const (
	StatusActive    Status = 1
	StatusSuspended Status = 2
	StatusDeleted   Status = 3
)

// Permission is a flag set of granted rights.
type Permission uint64

const (
	PermRead  Permission = 1 << iota
	PermWrite
	PermAdmin
)

// StatusEnum and PermissionsEnum parse enum and flags literals.
var (
	StatusEnum = value.MustEnum("Status",
		value.EnumMember{Name: "Active", Value: int64(StatusActive)},
		value.EnumMember{Name: "Suspended", Value: int64(StatusSuspended)},
		value.EnumMember{Name: "Deleted", Value: int64(StatusDeleted)},
	)
	PermissionsEnum = value.MustEnum("Permissions",
		value.EnumMember{Name: "Read", Value: int64(PermRead)},
		value.EnumMember{Name: "Write", Value: int64(PermWrite)},
		value.EnumMember{Name: "Admin", Value: int64(PermAdmin)},
	)
)

// User is one account. Pointer fields are nullable.
type User struct {
	Id          int64
	ExternalId  uuid.UUID
	Username    string
	FirstName   *string
	LastName    *string
	Email       *string
	Age         *int64
	Balance     *decimal.Decimal
	Score       float64
	Active      bool
	Status      Status
	Permissions Permission
	Created     time.Time
	Birthday    *time.Time
	Key         value.Compound
}

// Property names.
const (
	PropId          = "Id"
	PropExternalId  = "ExternalId"
	PropUsername    = "Username"
	PropFirstName   = "FirstName"
	PropLastName    = "LastName"
	PropEmail       = "Email"
	PropAge         = "Age"
	PropBalance     = "Balance"
	PropScore       = "Score"
	PropActive      = "Active"
	PropStatus      = "Status"
	PropPermissions = "Permissions"
	PropCreated     = "Created"
	PropBirthday    = "Birthday"
	PropKey         = "Key"
)

var (
	schemaOnce sync.Once
	registry   *schema.Registry
)

// Schema returns the User registry. It is built once.
func Schema() *schema.Registry {
	schemaOnce.Do(func() {
		registry = NewBuilder().MustBuild()
	})
	return registry
}

// NewBuilder returns a builder holding every User registration, for
// callers that want to extend it.
func NewBuilder() *schema.Builder {
	b := schema.NewBuilder(Entity)
	b.Field("Id", PropId, value.KindInt)
	b.Field("ExternalId", PropExternalId, value.KindUUID)
	b.Field("Username", PropUsername, value.KindString)
	b.Field("FirstName", PropFirstName, value.KindString).Nullable()
	b.Field("LastName", PropLastName, value.KindString).Nullable()
	b.Field("Email", PropEmail, value.KindString).Nullable()
	b.Field("Age", PropAge, value.KindInt).Nullable()
	b.Field("Balance", PropBalance, value.KindDecimal).Nullable()
	b.Field("Score", PropScore, value.KindFloat)
	b.Field("Active", PropActive, value.KindBool)
	b.Field("Status", PropStatus, value.KindEnum).Enum(StatusEnum)
	b.Field("Permissions", PropPermissions, value.KindFlags).Enum(PermissionsEnum)
	b.Field("Created", PropCreated, value.KindDateTime).
		Operators(operator.Greater | operator.GreaterOrEqual | operator.Less | operator.LessOrEqual | operator.Between).
		Default(operator.GreaterOrEqual)
	b.Field("Birthday", PropBirthday, value.KindDate).Nullable()
	b.Field("Key", PropKey, value.KindCompound)

	b.Group("Name").
		Part(PropFirstName, value.KindString, schema.JoinOr, schema.PartNullable()).
		Part(PropLastName, value.KindString, schema.JoinOr, schema.PartNullable())
	b.Group("Login").
		Part(PropUsername, value.KindString, schema.JoinAnd).
		Part(PropEmail, value.KindString, schema.JoinOr, schema.PartNullable())

	b.Sort("Id", PropId)
	b.Sort("Username", PropUsername)
	b.Sort("Name", PropLastName, PropFirstName)
	b.Sort("Created", PropCreated)
	b.Sort("Age", PropAge)
	b.Sort("Email", PropEmail)
	b.Sort("Balance", PropBalance)
	b.Sort("Score", PropScore).Default(operator.Descending)
	return b
}

// Record converts u to its value record. A nil ExternalId is null, which
// stores assign on insert.
func (u User) Record() value.Record {
	r := value.Record{
		PropId:          value.Int(u.Id),
		PropExternalId:  value.Null{},
		PropUsername:    value.String(u.Username),
		PropFirstName:   optString(u.FirstName),
		PropLastName:    optString(u.LastName),
		PropEmail:       optString(u.Email),
		PropAge:         value.Null{},
		PropBalance:     value.Null{},
		PropScore:       value.Float(u.Score),
		PropActive:      value.Bool(u.Active),
		PropStatus:      value.Enum(u.Status),
		PropPermissions: value.Flags(u.Permissions),
		PropCreated:     value.NewDateTime(u.Created),
		PropBirthday:    value.Null{},
		PropKey:         u.Key,
	}
	if u.ExternalId != uuid.Nil {
		r[PropExternalId] = value.UUID(u.ExternalId)
	}
	if u.Age != nil {
		r[PropAge] = value.Int(*u.Age)
	}
	if u.Balance != nil {
		r[PropBalance] = value.NewDecimal(*u.Balance)
	}
	if u.Birthday != nil {
		b := u.Birthday.UTC()
		r[PropBirthday] = value.NewDate(b.Year(), b.Month(), b.Day())
	}
	return r
}

// Records converts a slice of users.
func Records(us []User) []value.Record {
	out := make([]value.Record, len(us))
	for i, u := range us {
		out[i] = u.Record()
	}
	return out
}

func optString(s *string) value.Value {
	if s == nil {
		return value.Null{}
	}
	return value.String(*s)
}
