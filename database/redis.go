package database

import (
	"context"
	"log"

	config "github.com/velora/tokenmarket/configs"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for the assignment pointer store, or nil
// when REDIS_URL is unset or the server is unreachable. Callers fall back
// to the in-memory store in that case.
func ConnectRedis() *redis.Client {
	url := config.Config("REDIS_URL")
	if url == "" {
		log.Println("⚠️ REDIS_URL not set, assignment pointers will be kept in memory")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("🔥 Invalid REDIS_URL: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("⚠️ Redis unreachable, assignment pointers will be kept in memory: %v", err)
		return nil
	}

	log.Println("✅ Redis connected successfully")
	return client
}
