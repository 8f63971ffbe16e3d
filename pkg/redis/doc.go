// Package redis connects to Redis with go-redis/v9.
//
// Connect retries the initial ping according to Config; Healthcheck adapts a
// client to a func(context.Context) error check. The session package's
// RedisStore takes the returned client.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := session.NewRedisStore(client, session.WithKeyPrefix(cfg.KeyPrefix))
package redis
