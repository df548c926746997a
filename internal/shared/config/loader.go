package config

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load 读取 configPath 并反序列化到 out。
// watch 非空时开启热更新：文件变更后用同一个 viper 实例回调 watch，由调用方决定如何替换配置。
func Load(configPath string, out any, watch func(v *viper.Viper, e fsnotify.Event)) (*viper.Viper, error) {
	if !fileExist(configPath) {
		return nil, fmt.Errorf("config file not exist, configPath=%v", configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", configPath, err)
	}
	if watch != nil {
		v.OnConfigChange(func(e fsnotify.Event) {
			watch(v, e)
		})
		v.WatchConfig()
	}
	return v, nil
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
