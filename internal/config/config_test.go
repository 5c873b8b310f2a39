package config

import (
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_MAX_AGE", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("AUTH_LEGACY_ID_TOKENS", "")
	t.Setenv("WORKER_COUNT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AccessTokenMaxAge != 86400 {
		t.Errorf("AccessTokenMaxAge = %d, want 86400", cfg.AccessTokenMaxAge)
	}
	if cfg.ServerPort != "8000" {
		t.Errorf("ServerPort = %q, want 8000", cfg.ServerPort)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", cfg.CORSAllowedOrigins)
	}
	if cfg.LegacyIDTokens {
		t.Error("legacy id tokens should be off by default")
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want 2", cfg.WorkerCount)
	}
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_LEGACY_ID_TOKENS", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}

	t.Setenv("AUTH_LEGACY_ID_TOKENS", "true")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("legacy-only config should load: %v", err)
	}
	if !cfg.LegacyIDTokens {
		t.Error("expected LegacyIDTokens to be true")
	}
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit url wins",
			cfg:  Config{DBDriver: "postgres", DatabaseURL: "postgres://u:p@db/hobby"},
			want: "postgres://u:p@db/hobby",
		},
		{
			name: "postgres parts",
			cfg:  Config{DBDriver: "postgres", DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "hobby", DBPort: "5432", DBSSLMode: "disable"},
			want: "host=db user=u password=p dbname=hobby port=5432 sslmode=disable",
		},
		{
			name: "sqlite default file",
			cfg:  Config{DBDriver: "sqlite3"},
			want: "hobbyhub.db?_foreign_keys=on",
		},
		{
			name: "sqlite url gains foreign keys",
			cfg:  Config{DBDriver: "sqlite3", DatabaseURL: "file:data/hobby.db?cache=shared"},
			want: "file:data/hobby.db?_foreign_keys=on&cache=shared",
		},
		{
			name: "sqlite url cannot disable foreign keys",
			cfg:  Config{DBDriver: "sqlite3", DatabaseURL: "hobby.db?_foreign_keys=off&_fk=0"},
			want: "hobby.db?_foreign_keys=on",
		},
		{
			name: "sqlite url already enforcing",
			cfg:  Config{DBDriver: "sqlite3", DatabaseURL: ":memory:?_foreign_keys=on"},
			want: ":memory:?_foreign_keys=on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("splitList = %v", got)
	}
}
