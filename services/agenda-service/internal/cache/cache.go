// Package cache keeps computed availability and appointment listings in
// Redis. Entries are advisory: every reader falls back to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "agenda"
	versionTTL    = 24 * time.Hour
)

type Config struct {
	Prefix          string
	AvailabilityTTL time.Duration
	ListTTL         time.Duration
}

type Redis struct {
	client   redis.Cmdable
	prefix   string
	availTTL time.Duration
	listTTL  time.Duration
}

func New(client redis.Cmdable, cfg Config) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 5 * time.Minute
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = time.Minute
	}
	return &Redis{client: client, prefix: cfg.Prefix, availTTL: cfg.AvailabilityTTL, listTTL: cfg.ListTTL}
}

// practitionerVersionKey is bumped when working hours change, dateVersionKey
// when bookings on that date change. A slots entry is keyed by both.
func (c *Redis) practitionerVersionKey(practitionerID string) string {
	return fmt.Sprintf("%s:avail:%s:ver", c.prefix, practitionerID)
}

func (c *Redis) dateVersionKey(practitionerID string, d civil.Date) string {
	return fmt.Sprintf("%s:avail:%s:%s:ver", c.prefix, practitionerID, d)
}

func (c *Redis) slotsKey(practitionerID string, d civil.Date, version string) string {
	return fmt.Sprintf("%s:avail:%s:%s:v%s", c.prefix, practitionerID, d, version)
}

func (c *Redis) listVersionKey(clinicID string) string {
	return fmt.Sprintf("%s:list:%s:ver", c.prefix, clinicID)
}

func (c *Redis) listKey(clinicID, version string, f model.ListFilter) string {
	return fmt.Sprintf("%s:list:%s:v%s:%s", c.prefix, clinicID, version, f.Key())
}

// SlotsVersion returns "<practitioner>.<date>" versions, "0" for unset parts.
func (c *Redis) SlotsVersion(ctx context.Context, practitionerID string, d civil.Date) (string, error) {
	vals, err := c.client.MGet(ctx, c.practitionerVersionKey(practitionerID), c.dateVersionKey(practitionerID, d)).Result()
	if err != nil {
		return "", err
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = "0"
		if s, ok := v.(string); ok && s != "" {
			parts[i] = s
		}
	}
	return strings.Join(parts, "."), nil
}

func (c *Redis) Slots(ctx context.Context, practitionerID string, d civil.Date, version string) ([]model.Slot, bool, error) {
	var out []model.Slot
	ok, err := c.get(ctx, c.slotsKey(practitionerID, d, version), &out)
	return out, ok, err
}

func (c *Redis) StoreSlots(ctx context.Context, practitionerID string, d civil.Date, version string, slots []model.Slot) error {
	return c.set(ctx, c.slotsKey(practitionerID, d, version), slots, c.availTTL)
}

// InvalidateSlots bumps the version of each date so entries computed before
// the caller's write become unreachable.
func (c *Redis) InvalidateSlots(ctx context.Context, practitionerID string, dates ...civil.Date) error {
	if len(dates) == 0 {
		return nil
	}
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, c.dateVersionKey(practitionerID, d))
	}
	return c.bump(ctx, keys...)
}

// InvalidatePractitioner retires every cached date of a practitioner, used
// when working hours change.
func (c *Redis) InvalidatePractitioner(ctx context.Context, practitionerID string) error {
	return c.bump(ctx, c.practitionerVersionKey(practitionerID))
}

// bump increments version keys. They expire well after any entry stored
// under them, so a key that lapses back to zero cannot resurrect one.
func (c *Redis) bump(ctx context.Context, keys ...string) error {
	ttl := c.versionTTL()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, k)
			pipe.Expire(ctx, k, ttl)
		}
		return nil
	})
	return err
}

func (c *Redis) versionTTL() time.Duration {
	if ttl := 4 * c.availTTL; ttl > versionTTL {
		return ttl
	}
	return versionTTL
}

func (c *Redis) ListVersion(ctx context.Context, clinicID string) (string, error) {
	v, err := c.client.Get(ctx, c.listVersionKey(clinicID)).Int64()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(v, 10), nil
}

func (c *Redis) List(ctx context.Context, clinicID, version string, f model.ListFilter) ([]model.Appointment, bool, error) {
	var out []model.Appointment
	ok, err := c.get(ctx, c.listKey(clinicID, version, f), &out)
	return out, ok, err
}

func (c *Redis) StoreList(ctx context.Context, clinicID, version string, f model.ListFilter, appts []model.Appointment) error {
	return c.set(ctx, c.listKey(clinicID, version, f), appts, c.listTTL)
}

// InvalidateLists bumps the clinic's list version; entries under older
// versions become unreachable and expire.
func (c *Redis) InvalidateLists(ctx context.Context, clinicID string) error {
	return c.client.Incr(ctx, c.listVersionKey(clinicID)).Err()
}

func (c *Redis) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Redis) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func ReadyCheck(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis not configured")
		}
		return client.Ping(ctx).Err()
	}
}
