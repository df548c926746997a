package config

import (
	"os"
	"path/filepath"
)

const DefaultConfigRelPath = "configs/conf.yml"

// Resolve 解析配置文件路径：
// 1) 传入 cfgName（相对/绝对路径）则优先使用；
// 2) 否则从当前目录开始向上查找 `configs/conf.yml`。
func Resolve(cfgName string) (string, error) {
	curDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if cfgName != "" {
		if filepath.IsAbs(cfgName) {
			return cfgName, nil
		}
		if p := filepath.Join(curDir, cfgName); fileExist(p) {
			return p, nil
		}
	}
	return findConfigUpward(curDir)
}

func findConfigUpward(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, DefaultConfigRelPath)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &NotFoundError{StartDir: startDir}
		}
		dir = parent
	}
}

type NotFoundError struct {
	StartDir string
}

func (e *NotFoundError) Error() string {
	return "config file not exist, searched " + DefaultConfigRelPath + " from: " + e.StartDir
}
