package app

import (
	goredis "github.com/redis/go-redis/v9"

	redisclient "github.com/yungbote/sheetgrader-backend/internal/clients/redis"
	"github.com/yungbote/sheetgrader-backend/internal/logger"
)

type Clients struct {
	Redis *goredis.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")
	rdb, err := redisclient.NewClient(log)
	if err != nil {
		return Clients{}, err
	}
	return Clients{Redis: rdb}, nil
}
