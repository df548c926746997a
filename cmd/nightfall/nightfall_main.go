package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	admininterfaces "Nightfall/internal/admin/interfaces"
	"Nightfall/internal/game/action"
	"Nightfall/internal/game/engine"
	"Nightfall/internal/game/entity"
	"Nightfall/internal/game/worldfile"
	gatewayapp "Nightfall/internal/gateway/app"
	lobbyactor "Nightfall/internal/lobby/actor"
	"Nightfall/internal/lobby/actors"
	"Nightfall/internal/session/app/port"
	"Nightfall/internal/session/infra/persistence/file"
	"Nightfall/internal/session/infra/persistence/memory"
	sessionmongo "Nightfall/internal/session/infra/persistence/mongodb"
	sessionmysql "Nightfall/internal/session/infra/persistence/mysql"
	"Nightfall/internal/shared/gameconfig/balance"
	"Nightfall/internal/shared/infrastructure/db"
	sharedmongo "Nightfall/internal/shared/infrastructure/mongo"
	"Nightfall/internal/shared/logs"
	"Nightfall/internal/shared/serverconfig"
	transportgrpc "Nightfall/internal/shared/transport/grpc"
	transporthttp "Nightfall/internal/shared/transport/http"
	"Nightfall/internal/shared/transport/tcp"
	"Nightfall/internal/shared/transport/ws"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径，默认向上查找 configs/conf.yml")
	flag.Parse()

	conf, err := serverconfig.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	if err := logs.Init("nightfall", conf.Log); err != nil {
		panic(err)
	}
	defer logs.Sync()
	logs.Info("conf", zap.Any("conf", conf))

	serverconfig.OnReload(func(c *serverconfig.Config, err error) {
		if err != nil {
			logs.Warn("配置热更新失败", zap.Error(err))
			return
		}
		if err := logs.SetLevel(c.Log.Level); err != nil {
			logs.Warn("日志级别更新失败", zap.String("level", c.Log.Level), zap.Error(err))
			return
		}
		logs.Info("配置已热更新", zap.String("log_level", c.Log.Level))
	})

	tables, err := balance.Load(conf.Game.BalanceFile)
	if err != nil {
		logs.Fatal("load balance tables failed", zap.Error(err))
	}
	// 启动时先解析一次世界文件，配置有误直接退出
	if _, err := worldfile.Load(conf.Game.WorldFile, tables); err != nil {
		logs.Fatal("load world failed", zap.String("path", conf.Game.WorldFile), zap.Error(err))
	}

	repo, closeRepo, err := openRepository(conf)
	if err != nil {
		logs.Fatal("open session repository failed", zap.String("driver", conf.Persistence.Driver), zap.Error(err))
	}
	defer closeRepo()

	rt := lobbyactor.NewRuntime(actors.Deps{
		Repo:         repo,
		Simulator:    engine.NewSimulator(action.NewExecutor(tables, logs.Named("action")), logs.Named("engine")),
		NewState:     func() (*entity.GameState, error) { return worldfile.Load(conf.Game.WorldFile, tables) },
		TickInterval: conf.TickInterval(),
		FlushEvery:   conf.FlushInterval(),
		Logger:       logs.Named("lobby"),
	}, 0)

	gateway := gatewayapp.NewGateway(rt, gatewayapp.Options{
		TicketTTL: conf.TicketTTL(),
		Logger:    logs.Named("gateway"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 4)

	tcpAddr := serverconfig.Addr(conf.Server.Host, conf.Server.Port)
	tcpServer := tcp.NewServer(tcpAddr, gateway, tcp.Options{
		MaxLineBytes: conf.Server.MaxLineBytes,
		RateLimit:    conf.Server.RateLimit,
		RateBurst:    conf.Server.RateBurst,
	}, logs.Named("tcp"))
	go func() {
		logs.Info("tcp server started", zap.String("addr", tcpAddr))
		if err := tcpServer.Start(); err != nil && !errors.Is(err, net.ErrClosed) {
			errCh <- fmt.Errorf("tcp serve failed: %w", err)
		}
	}()

	var wsServer *transporthttp.Server
	if conf.WSServer.Enabled {
		wsAddr := serverconfig.Addr(conf.WSServer.Host, conf.WSServer.Port)
		wsServer = transporthttp.NewHttpServer(wsAddr, nil, logs.Named("ws.http"))
		wsServer.Mount("/ws", ws.NewServer(gateway, ws.Options{
			NeedSecret: conf.WSServer.NeedSecret,
			RateLimit:  conf.Server.RateLimit,
			RateBurst:  conf.Server.RateBurst,
		}, logs.Named("ws")))
		go func() {
			logs.Info("ws server started", zap.String("addr", wsAddr))
			if err := wsServer.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
				errCh <- fmt.Errorf("ws serve failed: %w", err)
			}
		}()
	}

	admin := admininterfaces.New(rt, logs.Named("admin"))

	var httpServer *transporthttp.Server
	if conf.HTTPServer.Enabled {
		httpAddr := serverconfig.Addr(conf.HTTPServer.Host, conf.HTTPServer.Port)
		httpServer = transporthttp.NewHttpServer(httpAddr, nil, logs.Named("http"))
		httpServer.Register(admin)
		go func() {
			logs.Info("admin http server started", zap.String("addr", httpAddr))
			if err := httpServer.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
				errCh <- fmt.Errorf("admin http serve failed: %w", err)
			}
		}()
	}

	var grpcLis net.Listener
	grpcServer, _ := transportgrpc.NewServer()
	if conf.GRPCServer.Enabled {
		grpcAddr := serverconfig.Addr(conf.GRPCServer.Host, conf.GRPCServer.Port)
		admin.GrpcRegister(grpcServer)
		grpcLis, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			logs.Fatal("listen admin grpc failed", zap.Error(err))
		}
		go func() {
			logs.Info("admin grpc server started", zap.String("addr", grpcAddr))
			if err := grpcServer.Serve(grpcLis); err != nil {
				errCh <- fmt.Errorf("admin grpc serve failed: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logs.Info("收到退出信号，准备优雅退出")
	case err := <-errCh:
		if err != nil {
			logs.Error("服务异常退出", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 先停入口，再停大厅：会话停止时做最后一次落盘
	if err := tcpServer.Shutdown(shutdownCtx); err != nil {
		logs.Warn("tcp shutdown", zap.Error(err))
	}
	if wsServer != nil {
		_ = wsServer.Shutdown(shutdownCtx)
	}
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	stopCh := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopCh)
	}()
	select {
	case <-stopCh:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}

	lobbyDone := make(chan struct{})
	go func() {
		rt.Shutdown()
		close(lobbyDone)
	}()
	select {
	case <-lobbyDone:
		logs.Info("lobby stopped")
	case <-shutdownCtx.Done():
		logs.Warn("lobby shutdown timeout")
	}
}

// openRepository 按 persistence.driver 选择会话快照仓储。
func openRepository(conf *serverconfig.Config) (port.SessionRepository, func(), error) {
	noop := func() {}
	switch conf.Persistence.Driver {
	case "memory":
		return memory.NewSessionRepository(), noop, nil
	case "file":
		repo, err := file.NewSessionRepository(conf.Persistence.FileDir)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil
	case "mongodb":
		client, err := sharedmongo.Open(conf.MongoDB, logs.Logger())
		if err != nil {
			return nil, noop, err
		}
		coll := sharedmongo.Collection(client, conf.MongoDB, sessionmongo.DefaultCollectionName)
		return sessionmongo.NewSessionRepository(coll), func() {
			_ = client.Disconnect(context.Background())
		}, nil
	case "mysql":
		gormDB, err := db.Open(conf.MySQL)
		if err != nil {
			return nil, noop, err
		}
		repo := sessionmysql.NewSessionRepository(gormDB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.Migrate(ctx); err != nil {
			return nil, noop, err
		}
		closeDB := func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repo, closeDB, nil
	default:
		return nil, noop, fmt.Errorf("unknown persistence driver %q", conf.Persistence.Driver)
	}
}
