// Package database provides the SQLite connection behind the durable MQTT
// session store.
//
// It is only opened when mqtt.session.persistence is "sqlite". The schema is
// managed by forward-only migrations embedded in the migrations package.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
package database
