package config

import (
	"strconv"
	"sync"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

type RedisConfig struct {
	Addr string
	DB   int
}

func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadEnv()

		db, err := strconv.Atoi(getenv("REDIS_DB", "0"))
		if err != nil {
			db = 0
		}

		redisConfig = &RedisConfig{
			Addr: getenv("REDIS_ADDR", "localhost:6379"),
			DB:   db,
		}
	})
	return redisConfig
}
