package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 【为什么需要分布式锁？】
//
// 场景：多个服务实例共享同一个 MySQL，同一投资人同时发起两笔投资
//
// 加了分布式锁：
//   实例1: 获取锁 -> 查询余额=1000 -> 投资600 -> 余额=400 -> 释放锁
//   实例2: 获取锁失败，等待... -> 获取锁 -> 查询余额=400 -> 余额不足，拒绝
//
// 【Redis 分布式锁原理】
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（保证互斥）
//   - EX: 设置过期时间（防止死锁）
//   - value: 锁持有者标识（释放时验证，防止误删别人的锁）
//
// 释放锁：使用 Lua 脚本保证原子性
//   - 先检查 value 是否是自己的
//   - 再删除 key
//
// ============================================================================

var ErrLockFailed = errors.New("获取分布式锁失败")

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string        // 锁的 key
	value      string        // 锁的 value（用于验证锁的持有者）
	expiration time.Duration // 锁的过期时间
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
//
// 【关键点】使用 SetNX 命令，只有当 key 不存在时才能设置成功
// 这保证了同一时刻只有一个客户端能获取到锁
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	// SET key value NX EX timeout
	// NX: 只有 key 不存在时才设置
	// EX: 设置过期时间，防止死锁（持有锁的进程崩溃时，锁会自动释放）
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		// 等待一段时间后重试
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
			// 继续重试
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
//
// 【关键点】使用 Lua 脚本保证"检查+删除"操作的原子性
//
// 为什么要检查 value？
//
//	场景：A 获取锁 -> A 处理超时，锁自动过期 -> B 获取锁 -> A 执行完毕，调用 Unlock
//	如果不检查 value，A 会把 B 的锁删掉！
//
//	使用 value 验证后：
//	A 的 Unlock 发现 value 不是自己的，不会删除，B 的锁安全
func (l *DistributedLock) Unlock(ctx context.Context) error {
	// Lua 脚本：检查 value 是否匹配，匹配则删除
	// 使用 Lua 脚本保证原子性，避免"检查-删除"之间的并发问题
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// ============================================================================
// Locker：资金操作按用户维度加锁
// ============================================================================
//
// 【为什么按用户维度加锁？】
//
// 余额检查与扣减必须连续执行：
//   goroutine1: 查询余额=1000 -> 投资600 -> 余额=400
//   goroutine2: 查询余额=1000 -> 投资600 -> 余额=-200 超扣了！
//
// 不同用户之间互不影响，同一用户的存款、提现、投资串行执行。

// Locker 获取 key 对应的互斥锁，返回的 unlock 必须调用
type Locker interface {
	Lock(ctx context.Context, key, owner string) (unlock func(), err error)
}

// RedisLocker 多进程共享 MySQL 时使用
type RedisLocker struct {
	client        *redis.Client
	expiration    time.Duration
	retryInterval time.Duration
	maxRetries    int
}

func NewRedisLocker(client *redis.Client, expiration time.Duration) *RedisLocker {
	retryInterval := 100 * time.Millisecond
	maxRetries := int(expiration / retryInterval)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RedisLocker{
		client:        client,
		expiration:    expiration,
		retryInterval: retryInterval,
		maxRetries:    maxRetries,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key, owner string) (func(), error) {
	dl := NewDistributedLock(l.client, key, owner, l.expiration)
	if err := dl.Lock(ctx, l.retryInterval, l.maxRetries); err != nil {
		return nil, err
	}
	return func() {
		// 请求的 ctx 可能已取消，释放锁使用独立的 ctx
		unlockCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = dl.Unlock(unlockCtx)
	}, nil
}

// WalletLockKey 钱包锁的 key
func WalletLockKey(userID string) string {
	return fmt.Sprintf("wallet:lock:user:%s", userID)
}
