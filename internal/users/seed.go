package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/filterql/internal/value"
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Seed returns the fixed demo data set. Every call returns fresh values.
func Seed() []User {
	return []User{
		{
			Id:          1,
			ExternalId:  uuid.MustParse("018f3a10-0000-7000-8000-000000000001"),
			Username:    "admin",
			FirstName:   ptr("Ada"),
			LastName:    ptr("Lovelace"),
			Email:       ptr("ada@example.com"),
			Age:         ptr[int64](36),
			Balance:     ptr(decimal.RequireFromString("1200.50")),
			Score:       9.5,
			Active:      true,
			Status:      StatusActive,
			Permissions: PermRead | PermWrite | PermAdmin,
			Created:     time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
			Birthday:    ptr(day(1988, time.December, 10)),
			Key:         value.NewCompound(1, 1),
		},
		{
			Id:          2,
			ExternalId:  uuid.MustParse("018f3a10-0000-7000-8000-000000000002"),
			Username:    "grace",
			FirstName:   ptr("Grace"),
			LastName:    ptr("Hopper"),
			Email:       ptr("grace@example.com"),
			Age:         ptr[int64](45),
			Balance:     ptr(decimal.RequireFromString("310.00")),
			Score:       8.25,
			Active:      true,
			Status:      StatusActive,
			Permissions: PermRead | PermWrite,
			Created:     time.Date(2024, 2, 3, 14, 0, 0, 0, time.UTC),
			Birthday:    ptr(day(1979, time.December, 9)),
			Key:         value.NewCompound(1, 2),
		},
		{
			Id:          3,
			ExternalId:  uuid.MustParse("018f3a10-0000-7000-8000-000000000003"),
			Username:    "Alan",
			FirstName:   ptr("Alan"),
			LastName:    ptr("Turing"),
			Email:       nil,
			Age:         ptr[int64](41),
			Balance:     nil,
			Score:       7,
			Active:      false,
			Status:      StatusSuspended,
			Permissions: PermRead,
			Created:     time.Date(2024, 3, 15, 8, 15, 0, 0, time.UTC),
			Birthday:    ptr(day(1982, time.June, 23)),
			Key:         value.NewCompound(1, 10),
		},
		{
			Id:          4,
			ExternalId:  uuid.MustParse("018f3a10-0000-7000-8000-000000000004"),
			Username:    "edsger",
			FirstName:   ptr("Edsger"),
			LastName:    ptr("Dijkstra"),
			Email:       ptr("edsger@example.org"),
			Age:         nil,
			Balance:     ptr(decimal.RequireFromString("-20.75")),
			Score:       6.5,
			Active:      true,
			Status:      StatusActive,
			Permissions: 0,
			Created:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			Birthday:    nil,
			Key:         value.NewCompound(2, 1),
		},
		{
			Id:          5,
			ExternalId:  uuid.MustParse("018f3a10-0000-7000-8000-000000000005"),
			Username:    "barbara",
			FirstName:   ptr("Barbara"),
			LastName:    nil,
			Email:       ptr("barbara@example.com"),
			Age:         ptr[int64](29),
			Balance:     ptr(decimal.RequireFromString("0")),
			Score:       8.25,
			Active:      true,
			Status:      StatusActive,
			Permissions: PermWrite,
			Created:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			Birthday:    ptr(day(1995, time.November, 3)),
			Key:         value.NewCompound(2, 2),
		},
		{
			Id:          6,
			ExternalId:  uuid.MustParse("018f3a10-0000-7000-8000-000000000006"),
			Username:    "ken",
			FirstName:   nil,
			LastName:    ptr("Thompson"),
			Email:       ptr(""),
			Age:         ptr[int64](52),
			Balance:     nil,
			Score:       5,
			Active:      false,
			Status:      StatusDeleted,
			Permissions: PermAdmin,
			Created:     time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
			Birthday:    nil,
			Key:         value.NewCompound(3, 1),
		},
	}
}
