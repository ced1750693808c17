package utils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

type RedisStatusStore struct {
	inner     *redis.Client
	keyParser RedisKeyParser
}

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	RedisTrue  = "1"
	RedisFalse = "0"

	digestSentPrefix = "digest_sent"
)

func GetRedisStatusStore() (*RedisStatusStore, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	_, err := redisClient.Ping(context.Background()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStatusStore{
		inner:     redisClient,
		keyParser: RedisKeyParser{delimiter: "__"},
	}, nil
}

type RedisKeyParser struct {
	delimiter string
}

func (r RedisKeyParser) ValidateId(id string) bool {
	return !strings.Contains(id, r.delimiter)
}

func (r RedisKeyParser) MustEncodeSaveKey(userId string, postId string) string {
	if !r.ValidateId(userId) || !r.ValidateId(postId) {
		panic(fmt.Errorf("invalid userId or postId with delimiter: %s, %s, %s", userId, postId, r.delimiter))
	}
	return fmt.Sprintf("%s%s%s", userId, r.delimiter, postId)
}

func (r RedisKeyParser) EncodeDigestKey(teamId string, windowKey string) string {
	return strings.Join([]string{digestSentPrefix, teamId, windowKey}, r.delimiter)
}

// GetPostsSavedStatus reports, for each post id, whether the user saved it.
func (r *RedisStatusStore) GetPostsSavedStatus(postIds []string, userId string) ([]bool, error) {
	if len(postIds) == 0 {
		return []bool{}, nil
	}

	saveKeys := []string{}
	for _, pid := range postIds {
		saveKeys = append(saveKeys, r.keyParser.MustEncodeSaveKey(userId, pid))
	}

	res, err := r.inner.MGet(context.Background(), saveKeys...).Result()
	status := []bool{}
	for _, v := range res {
		if v == nil {
			status = append(status, false)
			continue
		}

		// watchout
		if v == RedisTrue {
			status = append(status, true)
			continue
		}
		status = append(status, false)
	}
	return status, err
}

func (r RedisStatusStore) SetPostsSavedStatus(postIds []string, userId string, saved bool) error {
	if saved {
		keyValues := []interface{}{}
		for _, pid := range postIds {
			keyValues = append(keyValues, r.keyParser.MustEncodeSaveKey(userId, pid))
			keyValues = append(keyValues, RedisTrue)
		}
		return r.inner.MSetNX(context.Background(), keyValues...).Err()
	}

	keyValues := []string{}
	for _, pid := range postIds {
		keyValues = append(keyValues, r.keyParser.MustEncodeSaveKey(userId, pid))
	}
	return r.inner.Del(context.Background(), keyValues...).Err()
}

// WasDigestSent reports whether a digest for the given delivery window was
// already pushed to the team. Used to deduplicate scheduler restarts.
func (r *RedisStatusStore) WasDigestSent(ctx context.Context, teamId string, windowKey string) (bool, error) {
	res, err := r.inner.Get(ctx, r.keyParser.EncodeDigestKey(teamId, windowKey)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res == RedisTrue, nil
}

func (r *RedisStatusStore) MarkDigestSent(ctx context.Context, teamId string, windowKey string) error {
	return r.inner.Set(ctx, r.keyParser.EncodeDigestKey(teamId, windowKey), RedisTrue, 0).Err()
}
