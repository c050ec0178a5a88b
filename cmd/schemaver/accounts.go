package main

import (
	"context"

	"github.com/hlop3z/schemaver/pkg/schemaver"
)

// V0 is the first deployed schema.
var V0 = schemaver.MustVersion("v0", nil, func(d *schemaver.Declaration) {
	d.Put(schemaver.NewTable("accounts", "user",
		schemaver.Int("id").PK(),
		schemaver.Str("email", 100).Unq(),
		schemaver.Str("password", 100),
	))
}, nil)

// V1 adds a display name to users.
var V1 = schemaver.MustVersion("v1", V0, func(d *schemaver.Declaration) {
	d.Put(schemaver.NewTable("accounts", "user",
		schemaver.Int("id").PK(),
		schemaver.Str("email", 100).Unq(),
		schemaver.Str("password", 100),
		schemaver.Str("displayname", 1000),
	))
}, func(ctx context.Context, u *schemaver.Update) error {
	return u.AddColumn(ctx, "accounts", "user", schemaver.Str("displayname", 1000))
})

// Latest is the version deployments migrate to.
var Latest = V1
