package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"Nightfall/internal/client"
	"Nightfall/internal/game/action"
	"Nightfall/internal/game/entity"
	"Nightfall/internal/gateway/protocol"
	"Nightfall/internal/shared/gameconfig/balance"
	"Nightfall/modules/kit/logx"
)

// probe 连上服务端，建局或加入会话，可选地下一条建造指令，然后打印收到的状态。
func main() {
	addr := flag.String("addr", "127.0.0.1:8888", "服务端 TCP 地址")
	sessionID := flag.String("session", "", "要加入的会话，为空则新建")
	playerID := flag.String("player", "", "玩家 id")
	ticket := flag.String("ticket", "", "重连票据，优先于 -session/-player")
	build := flag.String("build", "", "建造指令 city_id:x:y:BUILDING_TYPE")
	watch := flag.Duration("watch", 10*time.Second, "观察时长")
	flag.Parse()

	zl, _ := zap.NewDevelopment()
	log := logx.NewZapLogger(zl)
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, *addr, *sessionID, *playerID, *ticket, *build, *watch); err != nil {
		log.Error("probe failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log logx.Logger, addr, sessionID, playerID, ticket, build string, watch time.Duration) error {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c, err := client.Dial(dialCtx, addr, client.Options{Logger: log})
	if err != nil {
		return err
	}
	defer c.Close()

	list, err := c.ListSessions(dialCtx)
	if err != nil {
		return err
	}
	log.Info("sessions", zap.Any("list", list))

	exec := action.NewExecutor(balance.Default(), nil)
	var s *client.Session
	switch {
	case ticket != "":
		s, err = c.Rejoin(dialCtx, exec, ticket)
	case sessionID != "":
		s, err = c.JoinSession(dialCtx, exec, sessionID, playerID)
	default:
		s, err = c.CreateSession(dialCtx, exec, playerID)
	}
	if err != nil {
		return err
	}
	log.Info("joined",
		zap.String("session_id", s.ID()),
		zap.String("player_id", s.PlayerID()),
		zap.String("ticket", s.Ticket()),
	)

	if build != "" {
		a, err := parseBuild(s.PlayerID(), build)
		if err != nil {
			return err
		}
		ok := s.Order(a)
		log.Info("predicted", zap.Bool("valid", ok), zap.Any("production", s.Predictor().PredictedProduction(a.CityID)))
		if err := s.Submit(dialCtx); err != nil {
			return err
		}
	}

	watchCtx, cancelWatch := context.WithTimeout(ctx, watch)
	defer cancelWatch()
	for {
		in, err := s.Next(watchCtx)
		if err != nil {
			if watchCtx.Err() != nil {
				return nil
			}
			return err
		}
		switch in.Type {
		case protocol.TypeStateUpdate:
			st := s.State()
			log.Info("state_update", zap.Int("turn", st.Turn), zap.Any("cities", summarize(st, s.PlayerID())))
		default:
			log.Info(in.Type, zap.ByteString("payload", in.Payload))
		}
	}
}

func parseBuild(playerID, arg string) (entity.Action, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 4 {
		return entity.Action{}, fmt.Errorf("bad -build %q, want city_id:x:y:TYPE", arg)
	}
	x, errX := strconv.Atoi(parts[1])
	y, errY := strconv.Atoi(parts[2])
	if errX != nil || errY != nil {
		return entity.Action{}, fmt.Errorf("bad -build position %q", arg)
	}
	bt := entity.BuildingType(strings.ToUpper(parts[3]))
	if !bt.Valid() {
		return entity.Action{}, fmt.Errorf("unknown building type %q", parts[3])
	}
	return entity.NewBuild(playerID, parts[0], entity.Position{X: x, Y: y}, bt), nil
}

func summarize(st *entity.GameState, playerID string) json.RawMessage {
	type citySummary struct {
		ID        string           `json:"id"`
		Resources entity.Resources `json:"resources"`
		Queue     int              `json:"build_queue"`
	}
	var out []citySummary
	for _, c := range st.Cities {
		if c.OwnerID != playerID {
			continue
		}
		out = append(out, citySummary{ID: c.ID, Resources: c.Resources, Queue: len(c.BuildQueue)})
	}
	raw, _ := json.Marshal(out)
	return raw
}
