package config

import "github.com/fsnotify/fsnotify"

// startWatch 开始监控配置文件变更
// 注意：调用方必须已持有 mu 锁
func (c *Config) startWatch() {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		c.mu.RLock()
		watching := c.watching
		onChange := c.onChange
		c.mu.RUnlock()

		// 已停止监控，忽略事件
		if !watching {
			return
		}
		if onChange != nil {
			onChange()
		}
	})
	c.viper.WatchConfig()
	c.watching = true
}

// StartWatch 开始监控配置文件变更
// 如果已经在监控中，则不重复启动；
// 监控是单向的：底层 fsnotify watcher 一旦启动便随进程存续，
// StopWatch 只能让回调失效，无法关闭 watcher 本身
func (c *Config) StartWatch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watching {
		return
	}
	c.startWatch()
}

// StopWatch 停止监控配置文件
// 注意：viper 未提供停止底层 fsnotify watcher 的方法，
// 此方法仅标记状态使回调不再生效
func (c *Config) StopWatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watching = false
}
