package users

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/value"
)

func TestSchema_BuiltOnce(t *testing.T) {
	assert.Same(t, Schema(), Schema())
	assert.Equal(t, Entity, Schema().Entity())
}

func TestSchema_Fields(t *testing.T) {
	reg := Schema()

	tests := []struct {
		name     string
		nullable bool
		def      operator.Op
	}{
		{"Id", false, operator.Between},
		{"Username", false, operator.Like | operator.CaseInsensitive},
		{"Email", true, operator.Like | operator.CaseInsensitive},
		{"Status", false, operator.Equal},
		{"Permissions", false, operator.BitsOr},
		{"Created", false, operator.GreaterOrEqual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd, ok := reg.Filter(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.nullable, fd.NullAllowed)
			assert.Equal(t, tt.def, fd.Default)
		})
	}

	name, ok := reg.Filter("name")
	require.True(t, ok, "filter lookup is case-insensitive")
	assert.Len(t, name.Parts, 2)

	sort, ok := reg.Sort("Name")
	require.True(t, ok)
	assert.Equal(t, []string{PropLastName, PropFirstName}, sort.Properties)
}

func TestSeed(t *testing.T) {
	seed := Seed()
	require.Len(t, seed, 6)

	seen := make(map[int64]bool)
	for i, u := range seed {
		assert.Equal(t, int64(i+1), u.Id)
		assert.False(t, seen[u.Id])
		seen[u.Id] = true
	}

	seed[0].Username = "changed"
	assert.Equal(t, "admin", Seed()[0].Username, "Seed returns fresh values")
}

func TestRecord_Nulls(t *testing.T) {
	u := User{Id: 7, Username: "nobody", Score: 1, Status: StatusActive}
	r := u.Record()

	assert.Equal(t, value.Int(7), r.Value(PropId))
	assert.Equal(t, value.String("nobody"), r.Value(PropUsername))
	for _, p := range []string{PropExternalId, PropFirstName, PropEmail, PropAge, PropBalance, PropBirthday} {
		assert.True(t, value.IsNull(r.Value(p)), "%s should be null", p)
	}
}

func TestRecords(t *testing.T) {
	records := Records(Seed())
	require.Len(t, records, 6)

	first := records[0]
	assert.Equal(t, value.UUID(uuid.MustParse("018f3a10-0000-7000-8000-000000000001")), first.Value(PropExternalId))
	assert.Equal(t, value.Enum(StatusActive), first.Value(PropStatus))
	assert.Equal(t, value.Flags(PermRead|PermWrite|PermAdmin), first.Value(PropPermissions))
	assert.True(t, value.IsNull(records[2].Value(PropEmail)))
	assert.Equal(t, value.String(""), records[5].Value(PropEmail))
}
