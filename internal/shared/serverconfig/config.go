package serverconfig

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"Nightfall/internal/shared/config"
)

var (
	current   atomic.Pointer[Config]
	mu        sync.Mutex
	listeners []func(*Config, error)
)

// Load 解析并加载配置，开启热更新。cfgName 为空时向上查找 configs/conf.yml。
func Load(cfgName string) (*Config, error) {
	path, err := config.Resolve(cfgName)
	if err != nil {
		return nil, err
	}
	var c Config
	_, err = config.Load(path, &c, func(v *viper.Viper, _ fsnotify.Event) {
		var next Config
		if err := v.Unmarshal(&next); err != nil {
			notify(nil, fmt.Errorf("reload config: %w", err))
			return
		}
		applyDefaults(&next)
		current.Store(&next)
		notify(&next, nil)
	})
	if err != nil {
		return nil, err
	}
	applyDefaults(&c)
	current.Store(&c)
	return &c, nil
}

// Get 返回当前生效的配置快照；未加载时返回全默认值。
func Get() *Config {
	if c := current.Load(); c != nil {
		return c
	}
	var c Config
	applyDefaults(&c)
	return &c
}

// OnReload 注册热更新回调，err 非空表示本次变更未生效。
func OnReload(fn func(*Config, error)) {
	mu.Lock()
	defer mu.Unlock()
	listeners = append(listeners, fn)
}

func notify(c *Config, err error) {
	mu.Lock()
	fns := append(([]func(*Config, error))(nil), listeners...)
	mu.Unlock()
	for _, fn := range fns {
		fn(c, err)
	}
}

func applyDefaults(c *Config) {
	// 环境变量优先；若未设置则回填配置中的 jwt_secret，兼容本地开发场景。
	if os.Getenv("JWT_SECRET") == "" && c.JWTSecret != "" {
		_ = os.Setenv("JWT_SECRET", c.JWTSecret)
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8888
	}
	if c.Server.MaxLineBytes <= 0 {
		c.Server.MaxLineBytes = 1 << 20
	}
	if c.Game.TickIntervalS <= 0 {
		c.Game.TickIntervalS = 1
	}
	if c.Game.FlushIntervalS <= 0 {
		c.Game.FlushIntervalS = 10
	}
	if c.Persistence.Driver == "" {
		c.Persistence.Driver = "memory"
	}
	if c.TicketTTLS <= 0 {
		c.TicketTTLS = 24 * 3600
	}
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Game.TickIntervalS * float64(time.Second))
}

func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Game.FlushIntervalS) * time.Second
}

func (c *Config) TicketTTL() time.Duration {
	return time.Duration(c.TicketTTLS) * time.Second
}

func Addr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
