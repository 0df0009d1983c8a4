package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autopost/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTopicNotFound is returned when marking a topic the store does not hold.
var ErrTopicNotFound = errors.New("storage: topic not found")

// Hash fields, shared with stores written by earlier tooling.
const (
	fieldTitle     = "title"
	fieldContent   = "content"
	fieldURL       = "url"
	fieldSource    = "source"
	fieldSubject   = "subject"
	fieldUsed      = "used"
	fieldCollected = "collected_at"
	fieldPublished = "published"
)

// RedisStore keeps collected topics per account set: an ordered id list, one
// hash per topic, and a set of identities seen at collection time.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "autopost"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) listKey(set string) string {
	return fmt.Sprintf("%s:topics:%s", s.prefix, set)
}

func (s *RedisStore) topicKey(set, id string) string {
	return fmt.Sprintf("%s:topic:%s:%s", s.prefix, set, id)
}

func (s *RedisStore) seenKey(set string) string {
	return fmt.Sprintf("%s:seen:%s", s.prefix, set)
}

// UsedMarker is the value written to the used field: the set name and the minute.
func UsedMarker(set string, ts time.Time) string {
	return fmt.Sprintf("%s_%s", set, ts.Format("20060102_1504"))
}

// addTopic stores one topic unless its identity was seen. Every command that
// can fail on a key of the wrong type runs before the first write, so an
// error leaves nothing behind and the topic can be retried.
var addTopic = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then return 0 end
redis.call('RPUSH', KEYS[1], ARGV[2])
redis.call('HSET', KEYS[3], unpack(ARGV, 3))
redis.call('SADD', KEYS[2], ARGV[1])
return 1
`)

// AddTopics appends topics not seen before for set, in the given order, and
// returns how many were stored.
func (s *RedisStore) AddTopics(ctx context.Context, set string, topics []model.Topic) (int, error) {
	added := 0
	for _, t := range topics {
		identity := t.Identity()
		if identity == "" {
			continue
		}
		id := uuid.NewString()
		collected := t.CollectedAt
		if collected.IsZero() {
			collected = time.Now().UTC()
		}
		keys := []string{s.listKey(set), s.seenKey(set), s.topicKey(set, id)}
		n, err := addTopic.Run(ctx, s.rdb, keys,
			identity, id,
			fieldTitle, t.Title,
			fieldContent, t.Body,
			fieldURL, t.URL,
			fieldSource, t.Source,
			fieldSubject, t.Subject,
			fieldUsed, "",
			fieldCollected, collected.Format(time.RFC3339),
		).Int()
		if err != nil {
			return added, fmt.Errorf("store topic %q: %w", t.Title, err)
		}
		added += n
	}
	return added, nil
}

// ListTopics returns every stored topic for set in collection order.
func (s *RedisStore) ListTopics(ctx context.Context, set string) ([]model.Topic, error) {
	ids, err := s.rdb.LRange(ctx, s.listKey(set), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, s.topicKey(set, id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Topic, 0, len(ids))
	for i, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			continue
		}
		t := model.Topic{
			ID:          ids[i],
			Title:       h[fieldTitle],
			Body:        h[fieldContent],
			URL:         h[fieldURL],
			Source:      h[fieldSource],
			Subject:     h[fieldSubject],
			Used:        h[fieldUsed],
			Published:   h[fieldPublished],
			OriginIndex: i,
		}
		if ts, err := time.Parse(time.RFC3339, h[fieldCollected]); err == nil {
			t.CollectedAt = ts
		}
		out = append(out, t)
	}
	return out, nil
}

// FetchUnused returns the topics of set that carry no used marker.
func (s *RedisStore) FetchUnused(ctx context.Context, set string) ([]model.Topic, error) {
	all, err := s.ListTopics(ctx, set)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, t := range all {
		if !t.IsUsed() {
			out = append(out, t)
		}
	}
	return out, nil
}

// markUsed sets the used field unless it already holds a marker.
// Returns -1 for a missing topic, 0 when already used, 1 when marked.
var markUsed = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
local v = redis.call('HGET', KEYS[1], ARGV[1])
if v and v ~= '' then return 0 end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// MarkUsed records that topic produced a post. Only the first marker is kept,
// so marking twice is the same as marking once.
func (s *RedisStore) MarkUsed(ctx context.Context, topic model.Topic, set string, ts time.Time) error {
	id, err := s.topicID(ctx, topic, set)
	if err != nil {
		return err
	}
	res, err := markUsed.Run(ctx, s.rdb, []string{s.topicKey(set, id)}, fieldUsed, UsedMarker(set, ts)).Int()
	if err != nil {
		return err
	}
	if res < 0 {
		return ErrTopicNotFound
	}
	return nil
}

// MarkPublished stores where the post for topic was published.
func (s *RedisStore) MarkPublished(ctx context.Context, topic model.Topic, set, link string) error {
	id, err := s.topicID(ctx, topic, set)
	if err != nil {
		return err
	}
	key := s.topicKey(set, id)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTopicNotFound
	}
	return s.rdb.HSet(ctx, key, fieldPublished, link).Err()
}

// topicID returns the topic's id, looking it up by list position when unset.
func (s *RedisStore) topicID(ctx context.Context, topic model.Topic, set string) (string, error) {
	if topic.ID != "" {
		return topic.ID, nil
	}
	id, err := s.rdb.LIndex(ctx, s.listKey(set), int64(topic.OriginIndex)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTopicNotFound
	}
	return id, err
}
