// Package storage provides a small local cache of best-known solution
// scores, keyed by instance digest, backed by SQLite.
//
// # Usage
//
//	cache, err := storage.NewSQLiteBestKnownCache("stride-cache.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	if err := cache.Init(); err != nil {
//	    log.Fatal(err)
//	}
//
//	if score, ok, err := cache.Get(idigest); err == nil && ok {
//	    fmt.Println("best known:", score)
//	}
//
// # Schema
//
//	CREATE TABLE best_known (
//	    idigest TEXT PRIMARY KEY,
//	    score INTEGER NOT NULL,
//	    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
//	);
//
// Put only overwrites an existing row when the new score improves on it;
// smaller is better, since these are solution sizes.
package storage
