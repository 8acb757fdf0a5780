package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/local-mcps/telegram-mcp/config"
	"github.com/local-mcps/telegram-mcp/internal/admin"
	"github.com/local-mcps/telegram-mcp/internal/chats"
	"github.com/local-mcps/telegram-mcp/internal/common"
	"github.com/local-mcps/telegram-mcp/internal/contacts"
	"github.com/local-mcps/telegram-mcp/internal/files"
	"github.com/local-mcps/telegram-mcp/internal/folders"
	"github.com/local-mcps/telegram-mcp/internal/media"
	"github.com/local-mcps/telegram-mcp/internal/messages"
	"github.com/local-mcps/telegram-mcp/internal/misc"
	"github.com/local-mcps/telegram-mcp/internal/profile"
	"github.com/local-mcps/telegram-mcp/internal/telegram"
	"github.com/local-mcps/telegram-mcp/pkg/mcp"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		common.Logger().Fatal("Failed to load config", "error", err)
	}
	cfg.ExpandPaths()

	common.SetupLogging(cfg.Global.LogLevel, cfg.Global.LogFormat, cfg.Global.ErrorLog)
	logger := common.Logger().With("module", "main")

	if cfg.Telegram.APIID == 0 || cfg.Telegram.APIHash == "" {
		logger.Fatal("Telegram API credentials missing: set TELEGRAM_API_ID and TELEGRAM_API_HASH")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("Shutting down")
		cancel()
	}()

	clientCfg := telegram.Config{
		APIID:           cfg.Telegram.APIID,
		APIHash:         cfg.Telegram.APIHash,
		SessionString:   cfg.Telegram.SessionString,
		SessionName:     cfg.Telegram.SessionName,
		ProxyURL:        cfg.Telegram.ProxyURL,
		RequestInterval: time.Duration(cfg.Telegram.RequestIntervalMs) * time.Millisecond,
		RequestBurst:    cfg.Telegram.RequestBurst,
		Debug:           cfg.Global.LogLevel == "debug",
	}

	err = telegram.Connect(ctx, clientCfg, func(ctx context.Context, client *telegram.Client) error {
		server := mcp.NewServer("telegram-mcp", version)
		resolver := files.NewResolver(files.NewNegotiator(cfg.Files.AllowedRoots))

		if cfg.Chats.Enabled {
			chats.NewServer(&cfg.Chats, client).RegisterTools(server)
			logger.Info("Registered chat tools")
		}

		if cfg.Messages.Enabled {
			messages.NewServer(&cfg.Messages, client).RegisterTools(server)
			logger.Info("Registered message tools")
		}

		if cfg.Contacts.Enabled {
			contacts.NewServer(&cfg.Contacts, client).RegisterTools(server)
			logger.Info("Registered contact tools")
		}

		if cfg.Profile.Enabled {
			profile.NewServer(&cfg.Profile, client, resolver).RegisterTools(server)
			logger.Info("Registered profile tools")
		}

		if cfg.Admin.Enabled {
			admin.NewServer(&cfg.Admin, client, resolver).RegisterTools(server)
			logger.Info("Registered admin tools")
		}

		if cfg.Media.Enabled {
			media.NewServer(&cfg.Media, client, resolver).RegisterTools(server)
			logger.Info("Registered media tools")
		}

		if cfg.Folders.Enabled {
			folders.NewServer(&cfg.Folders, client).RegisterTools(server)
			logger.Info("Registered folder tools")
		}

		if cfg.Misc.Enabled {
			misc.NewServer(&cfg.Misc, client).RegisterTools(server)
			logger.Info("Registered misc tools")
		}

		logger.Info("Starting telegram-mcp server", "version", version)
		return server.Run(ctx)
	})
	if err != nil && err != context.Canceled {
		logger.Fatal("Server error", "error", err)
	}
}
