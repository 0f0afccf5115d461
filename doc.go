// Package configorm provides declarative, typed access to configuration kept
// in a pluggable backing store: a flat file, HashiCorp Vault, Redis, a SQL
// table or memory, with optional per-field environment overrides.
//
// Features:
//   - Typed fields (integer, float, string, boolean, lists) with defaults,
//     nullability, environment override and validator rules
//   - Live resolution: every read goes to the store, nothing is cached
//   - Sections declared from schema structs, explicit bindings or a builder
//   - Store inheritance from parent sections
//   - Integrity check that creates missing sections and attributes
//   - Snapshot decoding into plain structs
//
// Quick Start:
//
//	type Database struct {
//	    configorm.Section
//	    Host     *configorm.Field[string] `configorm:"host"`
//	    Port     *configorm.Field[int64]  `configorm:"port"`
//	    Replicas *configorm.Field[[]string]
//	}
//
//	root, err := configorm.Quick("App", "app.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	db := &Database{
//	    Host:     configorm.String(configorm.Default("localhost"), configorm.EnvOverride()),
//	    Port:     configorm.Integer(configorm.Default(5432), configorm.Rule("min=1,max=65535")),
//	    Replicas: configorm.List[string](configorm.Null()),
//	}
//	configorm.MustDeclare(db, configorm.Meta{Parent: root})
//
//	if err := root.CheckIntegrity(); err != nil {
//	    log.Fatal(err)
//	}
//
//	port, _ := db.Port.Get()
//
// Resolution order for reads (highest to lowest):
//  1. Environment variable DATABASE_HOST, for fields declared with EnvOverride
//  2. Stored value
//  3. Declared default
//  4. Null, for fields declared with Null; otherwise ErrMissingValue
//
// Concurrency:
// The core holds no locks and no cache. Concurrent use is as safe as the
// store in use; every store in this module is safe for concurrent use.
package configorm
