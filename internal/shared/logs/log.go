package logs

import (
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"Nightfall/internal/shared/serverconfig"
	"Nightfall/modules/kit/logx"
)

var (
	logger      *zap.Logger = zap.NewNop()
	atomicLevel             = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init 构建进程 logger：控制台彩色输出，配置了 file_dir 时再加一路 JSON 文件（lumberjack 切割）。
func Init(appName string, cfg serverconfig.LogConfig) error {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		lvl = zapcore.InfoLevel
	}
	atomicLevel.SetLevel(lvl)

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	consoleCfg := encoderCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	fileCfg := encoderCfg
	fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	consoleSyncer := zapcore.Lock(os.Stderr)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), consoleSyncer, atomicLevel)
	if cfg.FileDir != "" {
		var fileWriter io.Writer = &lumberjack.Logger{
			Filename:   cfg.FileDir,
			MaxSize:    max(1, cfg.MaxSize), // MB
			MaxBackups: max(0, cfg.MaxBackups),
			MaxAge:     max(0, cfg.MaxAge),
			Compress:   cfg.Compress,
		}
		// 文件单独一路 core，避免颜色转义写进文件
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(fileWriter), atomicLevel))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Dev {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	_ = logger.Sync()
	logger = zap.New(core, opts...).Named(appName)
	return nil
}

// SetLevel 运行时调整日志级别，非法值返回错误且不生效。
func SetLevel(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return err
	}
	atomicLevel.SetLevel(lvl)
	return nil
}

func Level() zapcore.Level {
	return atomicLevel.Level()
}

// Logger 返回进程级 zap logger，未初始化时是 nop。
func Logger() *zap.Logger {
	return logger
}

// Named 派生 logx.Logger 给各模块注入。
func Named(name string) logx.Logger {
	return logx.NewZapLogger(logger.Named(name))
}

// Sync 退出前刷盘。
func Sync() {
	_ = logger.Sync()
}

// 以下是对进程 logger 的便捷封装。

func Debug(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Debug(msg, fields...)
	}
}

func Info(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Info(msg, fields...)
	}
}

func Warn(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Warn(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Error(msg, fields...)
	}
}

func Fatal(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Fatal(msg, fields...)
	}
}
