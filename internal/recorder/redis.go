package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"FundingSentinel/internal/model"
)

const (
	leadsKey      = "crypto_leads"
	directivesKey = "directives"
	pnlKey        = "pnl_history"
)

// RedisRecorder persists leads, directives and PnL as Redis hashes, one
// hash per record kind, keyed by symbol and timestamp.
type RedisRecorder struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisRecorder connects to Redis and verifies the connection.
func NewRedisRecorder(addr, password string, db int) (*RedisRecorder, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Printf("[INFO] redis recorder connected: %s", addr)
	return &RedisRecorder{client: client, ctx: context.Background()}, nil
}

func (r *RedisRecorder) hset(key, field string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", key, err)
	}
	return r.client.HSet(r.ctx, key, field, data).Err()
}

func (r *RedisRecorder) RecordLead(lead *model.Lead) error {
	field := fmt.Sprintf("%s:%d", lead.Symbol, lead.ObservedAt.Unix())
	return r.hset(leadsKey, field, lead)
}

func (r *RedisRecorder) RecordDirective(evt *DirectiveEvent) error {
	field := fmt.Sprintf("%s:%d", evt.Symbol, evt.Boundary.Unix())
	return r.hset(directivesKey, field, evt)
}

func (r *RedisRecorder) RecordPnL(rec *model.PnLRecord) error {
	field := fmt.Sprintf("%s:%d", rec.Symbol, rec.ClosedAt.Unix())
	return r.hset(pnlKey, field, rec)
}

func (r *RedisRecorder) RecentLeads(limit int) ([]model.Lead, error) {
	entries, err := r.client.HGetAll(r.ctx, leadsKey).Result()
	if err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(entries))
	for _, raw := range entries {
		var lead model.Lead
		if err := json.Unmarshal([]byte(raw), &lead); err != nil {
			continue
		}
		leads = append(leads, lead)
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].ObservedAt.After(leads[j].ObservedAt) })
	if len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}

func (r *RedisRecorder) Close() error {
	log.Println("[INFO] closing redis recorder")
	return r.client.Close()
}
