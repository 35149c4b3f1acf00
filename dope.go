// Package dope is the client SDK for the DOPE social network. New builds the
// full client aggregate: transport, session manager, secret store and the
// typed per-resource services. The caller's composition root holds the
// returned Client and passes it by reference; nothing in the SDK is a
// process-wide singleton.
package dope

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/dope-network/dope-go/internal/domain/feed"
	"github.com/dope-network/dope-go/internal/domain/oauthflow"
	"github.com/dope-network/dope-go/internal/domain/session"
	"github.com/dope-network/dope-go/internal/domain/social"
	"github.com/dope-network/dope-go/internal/infra/config"
	"github.com/dope-network/dope-go/internal/infra/media"
	"github.com/dope-network/dope-go/internal/secrets"
	"github.com/dope-network/dope-go/internal/transport"
)

// Client bundles every service of the SDK over one shared transport and
// session.
type Client struct {
	Transport     *transport.Client
	Sessions      *session.Manager
	Posts         feed.PostService
	Comments      feed.CommentService
	Notifications social.NotificationService
	Search        social.SearchService
	Subscriptions social.SubscriptionService
	Business      social.BusinessService
	Users         social.UserService
	OAuth         oauthflow.Service
	Secrets       secrets.Store
}

// New constructs the SDK from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	store, err := buildSecretStore(cfg.Secrets, logger)
	if err != nil {
		return nil, err
	}

	api, err := transport.New(cfg.API, logger)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(cfg.Session, api, store, logger)

	var uploader feed.MediaUploader
	if cfg.Media.Enabled {
		up, err := media.NewUploader(cfg.Media, logger)
		if err != nil {
			return nil, fmt.Errorf("configure media uploads: %w", err)
		}
		uploader = up
	}

	return &Client{
		Transport:     api,
		Sessions:      sessions,
		Posts:         feed.NewPostService(api, uploader, logger),
		Comments:      feed.NewCommentService(api, logger),
		Notifications: social.NewNotificationService(api, logger),
		Search:        social.NewSearchService(api, logger),
		Subscriptions: social.NewSubscriptionService(api, logger),
		Business:      social.NewBusinessService(api, logger),
		Users:         social.NewUserService(api, logger),
		OAuth:         oauthflow.NewService(cfg.OAuth, api, sessions, logger),
		Secrets:       store,
	}, nil
}

// buildSecretStore picks the configured backend. File is the default; memory
// suits tests and Valkey suits server-side consumers of the SDK.
func buildSecretStore(cfg config.SecretsConfig, logger *slog.Logger) (secrets.Store, error) {
	var cipher *secrets.Cipher
	if cfg.EncryptionKey != "" {
		c, err := secrets.NewCipher(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("configure secret encryption: %w", err)
		}
		cipher = c
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		return secrets.NewFileStore(cfg.Path, cipher)
	case "memory":
		return secrets.NewMemoryStore(cipher), nil
	case "valkey":
		opt, err := valkeyOptions(cfg.ValkeyAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid valkey address: %w", err)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			return nil, fmt.Errorf("connect valkey: %w", err)
		}
		logger.Info("valkey secret store enabled", "addr", cfg.ValkeyAddr)
		return secrets.NewValkeyStore(client, cipher, cfg.ValkeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
}

func valkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
