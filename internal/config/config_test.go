package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile - утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir - смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// Полный корректный YAML под текущую структуру config.go.
const sampleYAML = `
env: "prod"
http:
  host: "0.0.0.0"
  port: "8080"
session:
  access_cookie: "sb-access-token"
  refresh_cookie: "sb-refresh-token"
  max_age: "72h"
  protected_prefix: "/dashboard"
  login_path: "/signin"
identity:
  provider: "gotrue"
  url: "https://project.supabase.co"
  api_key: "anon-key"
  timeout: "4s"
db:
  url: "postgres://u:p@db:5432/blog"
mongo:
  url: "mongodb://mongo:27017/activity"
s3:
  endpoint: "http://minio:9000"
  root_user: "root"
  root_password: "secret"
  bucket: "images"
  public_base_url: "https://cdn.example.com/images"
covers:
  max_size_bytes: 1048576
  allowed_content_types: ["image/png"]
redis:
  url: "redis://redis:6379/0"
  max_attempts: 3
  window: "1m"
timeouts:
  service: "3s"
`

// Минимальный YAML (всё остальное - через дефолты/ENV).
const minimalYAML = `
env: "stage"
identity:
  url: "http://gotrue:9999"
`

const memoryYAML = `
env: "local"
identity:
  provider: "memory"
  memory:
    jwt_secret: "dev-secret"
    users:
      - id: "7b0e6f55-6a51-4c51-9d43-6a3b1b4f0c11"
        email: "admin@example.com"
        password: "Passw0rd!"
        role: "admin"
        confirmed: true
`

// Некорректный YAML для проверки сообщений об ошибке.
const brokenYAML = `
env: [unclosed
`

func TestHTTPConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := HTTPConfig{Host: "0.0.0.0", Port: "8080"}
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "8080", cfg.HTTP.Port)

	require.Equal(t, "sb-access-token", cfg.Session.AccessCookie)
	require.Equal(t, "sb-refresh-token", cfg.Session.RefreshCookie)
	require.Equal(t, 72*time.Hour, cfg.Session.MaxAge)
	require.Equal(t, "/dashboard", cfg.Session.ProtectedPrefix)
	require.Equal(t, "/signin", cfg.Session.LoginPath)

	require.Equal(t, ProviderGoTrue, cfg.Identity.Provider)
	require.Equal(t, "https://project.supabase.co", cfg.Identity.URL)
	require.Equal(t, "anon-key", cfg.Identity.APIKey)
	require.Equal(t, 4*time.Second, cfg.Identity.Timeout)

	require.Equal(t, "postgres://u:p@db:5432/blog", cfg.DB.URL)
	require.Equal(t, "mongodb://mongo:27017/activity", cfg.Mongo.URL)
	require.Equal(t, "images", cfg.S3.Bucket)
	require.Equal(t, int64(1048576), cfg.Covers.MaxSizeBytes)
	require.Equal(t, []string{"image/png"}, cfg.Covers.AllowedContentTypes)
	require.Equal(t, 3, cfg.Redis.MaxAttempts)
	require.Equal(t, time.Minute, cfg.Redis.Window)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Service)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "min.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "stage", cfg.Env)
	require.False(t, cfg.IsProduction())
	require.Equal(t, "access-token", cfg.Session.AccessCookie)
	require.Equal(t, "refresh-token", cfg.Session.RefreshCookie)
	require.Equal(t, 7*24*time.Hour, cfg.Session.MaxAge)
	require.Equal(t, "/admin", cfg.Session.ProtectedPrefix)
	require.Equal(t, "/login", cfg.Session.LoginPath)
	require.Equal(t, ProviderGoTrue, cfg.Identity.Provider)
	require.Equal(t, 15*time.Second, cfg.Timeouts.Service)
	require.Empty(t, cfg.Redis.URL)
	require.Contains(t, cfg.Covers.AllowedContentTypes, "image/webp")
}

func TestLoad_MemoryProvider(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "mem.yaml", memoryYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, ProviderMemory, cfg.Identity.Provider)
	require.Len(t, cfg.Identity.Memory.Users, 1)
	require.Equal(t, "admin@example.com", cfg.Identity.Memory.Users[0].Email)
	require.True(t, cfg.Identity.Memory.Users[0].Confirmed)
	require.Equal(t, 15*time.Minute, cfg.Identity.Memory.AccessTokenTTL)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "stage", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "8080", cfg.HTTP.Port)
}

// Явный путь важнее CONFIG_PATH и local.yaml.
func TestLoad_Priority_ExplicitWinsOverEnvAndLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	explicit := writeFile(t, dir, "explicit.yaml", minimalYAML)
	badFromEnv := writeFile(t, dir, "bad.yaml", brokenYAML)
	t.Setenv("CONFIG_PATH", badFromEnv)
	writeFile(t, ".", "local.yaml", brokenYAML)

	cfg, err := Load(explicit)
	require.NoError(t, err)
	require.Equal(t, "stage", cfg.Env)
}

func TestLoad_EnvOverlay_OverridesValuesFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("HTTP_PORT", "18080")
	t.Setenv("SESSION_ACCESS_COOKIE", "acc")
	t.Setenv("IDENTITY_URL", "http://other:9999")
	t.Setenv("SERVICE", "5s")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "18080", cfg.HTTP.Port)
	require.Equal(t, "acc", cfg.Session.AccessCookie)
	require.Equal(t, "http://other:9999", cfg.Identity.URL)
	require.Equal(t, 5*time.Second, cfg.Timeouts.Service)
}

// «Только ENV» без файлов.
func TestLoad_EnvOnly_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	t.Setenv("ENV", "dev")
	t.Setenv("IDENTITY_URL", "http://gotrue:9999")
	t.Setenv("IDENTITY_API_KEY", "k")
	t.Setenv("SESSION_PROTECTED_PREFIX", "/panel")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "http://gotrue:9999", cfg.Identity.URL)
	require.Equal(t, "k", cfg.Identity.APIKey)
	require.Equal(t, "/panel", cfg.Session.ProtectedPrefix)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"gotrue_without_url": `
identity: { provider: "gotrue" }
`,
		"memory_without_secret": `
identity: { provider: "memory" }
`,
		"memory_in_prod": `
env: "prod"
identity: { provider: "memory", memory: { jwt_secret: "x" } }
`,
		"unknown_provider": `
identity: { provider: "ldap" }
`,
		"same_cookie_names": `
identity: { url: "http://x" }
session: { access_cookie: "t", refresh_cookie: "t" }
`,
		"prefix_trailing_slash": `
identity: { url: "http://x" }
session: { protected_prefix: "/admin/" }
`,
		"redis_zero_attempts": `
identity: { url: "http://x" }
redis: { url: "redis://r:6379", max_attempts: -1 }
`,
	}

	for name, body := range cases {
		name, body := name, body
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "c.yaml", body)
			_, err := Load(p)
			require.Error(t, err)
		})
	}
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	require.Panics(t, func() {
		_ = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
