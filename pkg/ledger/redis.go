package ledger

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// DefaultRedisKey is the hash holding the shared ledger.
const DefaultRedisKey = "encore:best-score"

// submitScript replaces the stored score only when the new one is higher.
// It returns {1|0, previous}, with an empty previous when none existed.
var submitScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if (not cur) or (tonumber(ARGV[2]) > tonumber(cur)) then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return {1, cur or ''}
end
return {0, cur}
`)

// Redis is a ledger shared through a Redis hash.
type Redis struct {
	client redis.UniversalClient
	key    string
	owned  bool
}

// NewRedis returns a ledger stored under key using client. The caller keeps
// ownership of client.
func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// DialRedis connects to the Redis server at url (redis://host:port/db).
func DialRedis(ctx context.Context, url, key string) (*Redis, error) {
	if err := errors.ValidateURL(url, "redis", "rediss", "unix"); err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis")
	}
	r := NewRedis(client, key)
	r.owned = true
	return r, nil
}

// Best implements Ledger.
func (r *Redis) Best(ctx context.Context, id problem.ID) (float64, bool, error) {
	v, err := r.client.HGet(ctx, r.key, id.String()).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	s, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, errors.Wrap(errors.ErrCodeInvalidFormat, err, "score for problem %d", id)
	}
	return s, true, nil
}

// All implements Ledger.
func (r *Redis) All(ctx context.Context) (map[problem.ID]float64, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	scores := make(map[problem.ID]float64, len(raw))
	for k, v := range raw {
		id, err := problem.ParseID(k)
		if err != nil {
			return nil, err
		}
		s, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "score for problem %s", k)
		}
		scores[id] = s
	}
	return scores, nil
}

// Submit implements Ledger.
func (r *Redis) Submit(ctx context.Context, id problem.ID, score float64) (Outcome, error) {
	res, err := submitScript.Run(ctx, r.client, []string{r.key},
		id.String(), strconv.FormatFloat(score, 'g', -1, 64)).Slice()
	if err != nil {
		return Outcome{}, err
	}
	if len(res) != 2 {
		return Outcome{}, errors.New(errors.ErrCodeInternal, "unexpected script reply %v", res)
	}
	improved, _ := res[0].(int64)
	prevStr, _ := res[1].(string)

	out := Outcome{Improved: improved == 1}
	if prevStr != "" {
		prev, err := strconv.ParseFloat(prevStr, 64)
		if err != nil {
			return Outcome{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "score for problem %d", id)
		}
		out.Previous, out.Known = prev, true
	}
	return out, nil
}

// Replace implements Ledger.
func (r *Redis) Replace(ctx context.Context, scores map[problem.ID]float64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(scores) == 0 {
			return nil
		}
		values := make(map[string]any, len(scores))
		for id, s := range scores {
			values[id.String()] = strconv.FormatFloat(s, 'g', -1, 64)
		}
		pipe.HSet(ctx, r.key, values)
		return nil
	})
	return err
}

// Close implements Ledger. It closes the client only if DialRedis made it.
func (r *Redis) Close() error {
	if r.owned {
		return r.client.Close()
	}
	return nil
}
