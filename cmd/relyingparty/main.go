package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/identigo/relyingparty/pkg"
	"github.com/identigo/relyingparty/pkg/oauth2"
	"github.com/identigo/relyingparty/pkg/oidc"
	"github.com/identigo/relyingparty/pkg/prettylog"
	"github.com/identigo/relyingparty/pkg/rp"
	"github.com/identigo/relyingparty/pkg/session"
	"github.com/identigo/relyingparty/pkg/util"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	godotenv.Load()

	level := slog.LevelInfo
	if os.Getenv("LOG_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(prettylog.NewHandler(level)))

	cfg, err := loadClientConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.ClientSecret.Value() == "" || strings.HasPrefix(cfg.ClientSecret.Value(), "your-") {
		slog.Warn("Client secret looks like a placeholder, authentication will fail against a real provider")
	}

	// discovery must complete before the server accepts traffic
	client, err := oidc.NewClient(cfg)
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("Discovered OpenID provider", "issuer", client.Issuer())

	signKey := []byte(os.Getenv("SESSION_SECRET"))
	if len(signKey) == 0 {
		generated, err := oauth2.GenerateState()
		if err != nil {
			log.Fatal(err)
		}
		signKey = []byte(generated)
		slog.Warn("SESSION_SECRET not set, using an ephemeral signing key; sessions will not survive a restart")
	}

	store := session.NewMockSessionStore()
	cookies := session.NewCookieManager(
		util.GetEnv("SESSION_COOKIE_NAME", "rp_session"),
		signKey,
		os.Getenv("PRODUCTION_GRADE_COOKIE") != "",
	)

	auth := rp.NewAuthenticator(client, store)
	server := rp.NewServer(auth, store, cookies)

	root := echo.New()
	root.HideBanner = true
	root.Use(middleware.Recover())

	server.MountRoutes(root.Group(""))

	if staticDir := util.GetEnv("STATIC_DIR", "public"); staticDir != "" {
		root.Static("/", staticDir)
	}

	addr := util.GetEnv("SERVER_ADDR", ":3000")
	slog.Info("Starting relyingparty", "addr", addr, "version", pkg.Version)
	log.Fatal(http.ListenAndServe(addr, root))
}

// loadClientConfig prefers a YAML config file and falls back to environment
// variables.
func loadClientConfig() (*oidc.Config, error) {
	if path := os.Getenv("RP_CONFIG_PATH"); path != "" {
		return oidc.LoadConfig(path)
	}

	baseURL := strings.TrimRight(util.GetEnv("APP_BASE_URL", "http://localhost:3000"), "/")

	cfg := &oidc.Config{
		Issuer:                os.Getenv("OIDC_ISSUER"),
		ClientID:              os.Getenv("OIDC_CLIENT_ID"),
		ClientSecret:          oidc.NewSecretString(os.Getenv("OIDC_CLIENT_SECRET")),
		RedirectURI:           baseURL + "/authorization-code/callback",
		PostLogoutRedirectURI: baseURL + "/logout/callback",
	}
	if scope := os.Getenv("OIDC_SCOPE"); scope != "" {
		cfg.Scopes = strings.Split(scope, " ")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
