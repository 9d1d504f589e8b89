package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/surveyflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// saveScript writes a response and counts it only when its id is new.
var saveScript = backend.NewScript(`
local added = redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[1])
if added == 1 then
	redis.call("INCR", KEYS[3])
end
return added
`)

var deleteScript = backend.NewScript(`
local removed = redis.call("HDEL", KEYS[1], ARGV[1])
if removed == 1 then
	redis.call("ZREM", KEYS[2], ARGV[1])
	redis.call("DECR", KEYS[3])
end
return removed
`)

// ResponseStore implements ports.ResponseStore on Redis.
//
// Layout per survey:
//
//	<prefix>responses:<survey>        hash   responseID -> JSON
//	<prefix>responses:<survey>:order  zset   responseID scored by createdAt (ms)
//	<prefix>responses:<survey>:count  string response count
type ResponseStore struct {
	client *backend.Client
	prefix string
}

// NewResponseStore creates a response store, usually sharing the client of the attempt store.
func NewResponseStore(client *backend.Client, prefix string) *ResponseStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ResponseStore{client: client, prefix: prefix}
}

func (s *ResponseStore) hashKey(surveyID string) string  { return s.prefix + "responses:" + surveyID }
func (s *ResponseStore) orderKey(surveyID string) string { return s.hashKey(surveyID) + ":order" }
func (s *ResponseStore) countKey(surveyID string) string { return s.hashKey(surveyID) + ":count" }

func (s *ResponseStore) Save(ctx context.Context, resp *domain.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	keys := []string{s.hashKey(resp.SurveyID), s.orderKey(resp.SurveyID), s.countKey(resp.SurveyID)}
	if err := saveScript.Run(ctx, s.client, keys, resp.ID, data, resp.CreatedAt.UnixMilli()).Err(); err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

func (s *ResponseStore) Get(ctx context.Context, surveyID, responseID string) (*domain.Response, error) {
	raw, err := s.client.HGet(ctx, s.hashKey(surveyID), responseID).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrResponseNotFound, responseID)
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	var resp domain.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

func (s *ResponseStore) List(ctx context.Context, surveyID string, limit, offset int) ([]*domain.Response, error) {
	start := int64(max(offset, 0))
	stop := int64(-1)
	if limit > 0 {
		stop = start + int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, s.orderKey(surveyID), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Response{}, nil
	}

	raws, err := s.client.HMGet(ctx, s.hashKey(surveyID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	out := make([]*domain.Response, 0, len(raws))
	for _, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var resp domain.Response
		if err := json.Unmarshal([]byte(str), &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		out = append(out, &resp)
	}
	return out, nil
}

func (s *ResponseStore) Delete(ctx context.Context, surveyID, responseID string) error {
	keys := []string{s.hashKey(surveyID), s.orderKey(surveyID), s.countKey(surveyID)}
	removed, err := deleteScript.Run(ctx, s.client, keys, responseID).Int()
	if err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", domain.ErrResponseNotFound, responseID)
	}
	return nil
}

func (s *ResponseStore) Count(ctx context.Context, surveyID string) (int, error) {
	n, err := s.client.Get(ctx, s.countKey(surveyID)).Int()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read response count: %w", err)
	}
	return n, nil
}
