package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/utils"
)

// RecentKey is one answer-key reference joined with its usage stats.
type RecentKey struct {
	URL      string    `json:"url"`
	UseCount int       `json:"use_count"`
	LastUsed time.Time `json:"last_used"`
}

// RecencyCacheService remembers, per teacher, the most recently used
// answer-key references. The visible list is bounded; the usage stats hash
// is not and survives eviction, so a re-added reference resumes its
// historical count. Both structures are advisory: losing them costs
// convenience, never correctness.
type RecencyCacheService interface {
	Record(ctx context.Context, teacherNaturalID, keyURL string) error
	Recent(ctx context.Context, teacherNaturalID string) ([]RecentKey, error)
}

// recencyKV is the slice of the key-value store the cache needs. The redis
// adapter below is the production implementation.
type recencyKV interface {
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	// ListPushTrim pushes val to the front and trims to maxLen in one
	// atomic step, so the list never exceeds its bound between the two.
	ListPushTrim(ctx context.Context, key, val string, maxLen int64) error
	HashGet(ctx context.Context, key, field string) (string, bool, error)
	HashSet(ctx context.Context, key, field, val string) error
}

type keyUsage struct {
	UseCount int       `json:"use_count"`
	LastUsed time.Time `json:"last_used"`
}

type recencyCacheService struct {
	log      *logger.Logger
	kv       recencyKV
	capacity int
	now      func() time.Time
}

func NewRecencyCacheService(log *logger.Logger, rdb *goredis.Client) RecencyCacheService {
	serviceLog := log.With("service", "RecencyCacheService")
	capacity := utils.GetEnvAsInt("RECENT_KEYS_CAPACITY", 3, log)
	return &recencyCacheService{
		log:      serviceLog,
		kv:       &redisRecencyKV{rdb: rdb},
		capacity: capacity,
		now:      time.Now,
	}
}

func listKey(teacherNaturalID string) string  { return "recentkeys:" + teacherNaturalID }
func statsKey(teacherNaturalID string) string { return "keystats:" + teacherNaturalID }

func (s *recencyCacheService) Record(ctx context.Context, teacherNaturalID, keyURL string) error {
	if teacherNaturalID == "" || keyURL == "" {
		return fmt.Errorf("teacher id and key url required")
	}

	members, err := s.kv.ListRange(ctx, listKey(teacherNaturalID), 0, -1)
	if err != nil {
		return fmt.Errorf("read recent keys: %w", err)
	}
	present := false
	for _, m := range members {
		if m == keyURL {
			present = true
			break
		}
	}
	// A known reference keeps its position: reuse bumps the usage counter
	// only, the list stays in first-seen order.
	if !present {
		if err := s.kv.ListPushTrim(ctx, listKey(teacherNaturalID), keyURL, int64(s.capacity)); err != nil {
			return fmt.Errorf("push recent key: %w", err)
		}
	}

	usage := keyUsage{}
	raw, ok, err := s.kv.HashGet(ctx, statsKey(teacherNaturalID), keyURL)
	if err != nil {
		return fmt.Errorf("read key usage: %w", err)
	}
	if ok {
		if uErr := json.Unmarshal([]byte(raw), &usage); uErr != nil {
			s.log.Warn("Dropping unreadable key usage entry", "teacher", teacherNaturalID, "key", keyURL, "error", uErr)
			usage = keyUsage{}
		}
	}
	usage.UseCount++
	usage.LastUsed = s.now()

	out, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("encode key usage: %w", err)
	}
	if err := s.kv.HashSet(ctx, statsKey(teacherNaturalID), keyURL, string(out)); err != nil {
		return fmt.Errorf("write key usage: %w", err)
	}
	return nil
}

func (s *recencyCacheService) Recent(ctx context.Context, teacherNaturalID string) ([]RecentKey, error) {
	if teacherNaturalID == "" {
		return nil, fmt.Errorf("teacher id required")
	}

	members, err := s.kv.ListRange(ctx, listKey(teacherNaturalID), 0, int64(s.capacity)-1)
	if err != nil {
		return nil, fmt.Errorf("read recent keys: %w", err)
	}

	out := make([]RecentKey, 0, len(members))
	for _, m := range members {
		entry := RecentKey{URL: m, UseCount: 0, LastUsed: s.now()}
		raw, ok, err := s.kv.HashGet(ctx, statsKey(teacherNaturalID), m)
		if err != nil {
			return nil, fmt.Errorf("read key usage: %w", err)
		}
		if ok {
			var usage keyUsage
			if uErr := json.Unmarshal([]byte(raw), &usage); uErr == nil {
				entry.UseCount = usage.UseCount
				entry.LastUsed = usage.LastUsed
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

type redisRecencyKV struct {
	rdb *goredis.Client
}

func (r *redisRecencyKV) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.rdb.LRange(ctx, key, start, stop).Result()
}

func (r *redisRecencyKV) ListPushTrim(ctx context.Context, key, val string, maxLen int64) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, key, val)
		pipe.LTrim(ctx, key, 0, maxLen-1)
		return nil
	})
	return err
}

func (r *redisRecencyKV) HashGet(ctx context.Context, key, field string) (string, bool, error) {
	val, err := r.rdb.HGet(ctx, key, field).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *redisRecencyKV) HashSet(ctx context.Context, key, field, val string) error {
	return r.rdb.HSet(ctx, key, field, val).Err()
}
