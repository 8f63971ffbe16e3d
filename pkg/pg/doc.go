// Package pg bootstraps PostgreSQL access over pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config, retrying until the database
// answers a ping. Migrate applies goose migrations from an fs.FS, usually an
// embed.FS owned by the store package. WithTx wraps a function in a
// transaction. IsNotFoundError, IsDuplicateKeyError and DuplicateConstraint
// classify driver errors so stores can map them onto their own sentinels.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//	    return err
//	}
package pg
