package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/activity"
	"predpraznik_backend/internal/codes"
	"predpraznik_backend/internal/codes/transport"
	"predpraznik_backend/internal/events"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/config"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/google/uuid"
)

func main() {
	prefix := flag.String("prefix", "", "salesperson code prefix, e.g. GEO")
	count := flag.Int("count", 50, "number of codes to generate (1-500)")
	owner := flag.String("owner", "", "optional owner profile id")
	operator := flag.String("operator", "", "admin profile id recorded as the actor")
	qrDir := flag.String("qr-dir", "", "write one PNG QR label per code into this directory")
	flag.Parse()

	if *prefix == "" || *operator == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting code batch", "prefix", *prefix, "count", *count)

	actorID, err := uuid.Parse(*operator)
	if err != nil {
		log.Error("invalid operator id", "value", *operator)
		os.Exit(2)
	}
	req := transport.GenerateBatchRequest{Prefix: *prefix, Count: *count}
	if *owner != "" {
		ownerID, err := uuid.Parse(*owner)
		if err != nil {
			log.Error("invalid owner id", "value", *owner)
			os.Exit(2)
		}
		req.OwnerID = &ownerID
	}

	val := validator.New()
	if err := val.Struct(req); err != nil {
		log.Error("invalid batch request", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(log)
	activity.NewModule(pool, cfg.GetLocation(), val, log).RegisterHandlers(bus)

	svc := codes.NewModule(pool, bus, val, log).Service()
	actor := access.Actor{UserID: actorID, Role: access.RoleAdmin}

	resp, err := svc.GenerateBatch(ctx, actor, req)
	bus.Wait()
	if err != nil {
		if apperr.Is(err, apperr.KindShortfall) {
			log.Error("prefix cannot hold the requested number of codes", "prefix", *prefix, "error", err)
			os.Exit(1)
		}
		log.Error("code batch failed", "error", err)
		os.Exit(1)
	}

	for _, code := range resp.Codes {
		fmt.Println(code.Code)
	}

	if *qrDir == "" {
		return
	}
	if err := os.MkdirAll(*qrDir, 0o755); err != nil {
		log.Error("failed to create qr directory", "dir", *qrDir, "error", err)
		os.Exit(1)
	}
	for _, code := range resp.Codes {
		png, err := svc.RenderQR(code.Code)
		if err != nil {
			log.Error("qr render failed", "code", code.Code, "error", err)
			continue
		}
		path := filepath.Join(*qrDir, code.Code+".png")
		if err := os.WriteFile(path, png, 0o644); err != nil {
			log.Error("qr write failed", "path", path, "error", err)
		}
	}
	log.Info("qr labels written", "dir", *qrDir, "count", len(resp.Codes))
}
