package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPurpose = "general"

	// 10 requests per IP per 15 minutes
	ipLimit  = 10
	ipWindow = 15 * time.Minute

	emailCooldown = 2 * time.Minute
)

// Rule is a fixed-window budget
type Rule struct {
	Limit  int
	Window time.Duration
}

// Budgets for phone verification, per account
var (
	RuleSendCode   = Rule{Limit: 5, Window: time.Hour}
	RuleVerifyCode = Rule{Limit: 10, Window: 10 * time.Minute}
)

// Limiter implements fixed-window counters and cooldowns in Redis
type Limiter struct {
	client        *redis.Client
	ipRule        Rule
	emailCooldown time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client:        client,
		ipRule:        Rule{Limit: ipLimit, Window: ipWindow},
		emailCooldown: emailCooldown,
	}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func accountKey(accountID, purpose string) string {
	return fmt.Sprintf("ratelimit:account:%s:%s", purpose, accountID)
}

func emailCooldownKey(email string) string {
	return fmt.Sprintf("cooldown:email:%s", strings.ToLower(strings.TrimSpace(email)))
}

// CheckIPRateLimit reports whether ip has used up the general budget
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, defaultPurpose)
}

// CheckIPRateLimitWithPurpose reports whether ip has used up the budget of purpose
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return l.exceeded(ctx, ipKey(ip, purpose), l.ipRule)
}

// RecordIPRequest counts one general request from ip
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, defaultPurpose)
}

// RecordIPRequestWithPurpose counts one request of purpose from ip
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return l.record(ctx, ipKey(ip, purpose), l.ipRule)
}

// CheckAccountRateLimit reports whether an account has used up rule for purpose
func (l *Limiter) CheckAccountRateLimit(ctx context.Context, accountID, purpose string, rule Rule) (bool, error) {
	return l.exceeded(ctx, accountKey(accountID, purpose), rule)
}

// RecordAccountRequest counts one request of purpose for an account
func (l *Limiter) RecordAccountRequest(ctx context.Context, accountID, purpose string, rule Rule) error {
	return l.record(ctx, accountKey(accountID, purpose), rule)
}

// CheckEmailCooldown reports whether an email was used for a mail request recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Exists(ctx, emailCooldownKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return n > 0, nil
}

// SetEmailCooldown starts the cooldown of an email
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, emailCooldownKey(email), "1", l.emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}

func (l *Limiter) exceeded(ctx context.Context, key string, rule Rule) (bool, error) {
	count, err := l.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return count >= rule.Limit, nil
}

func (l *Limiter) record(ctx context.Context, key string, rule Rule) error {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First hit opens the window
	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return nil
}
